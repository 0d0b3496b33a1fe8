package errors

import "github.com/pkg/errors"

var (
	ErrDomainNotFound     = errors.New("domain not found")
	ErrUnknownChannel     = errors.New("unsupported delivery channel")
	ErrMissingDownloadRef = errors.New("webhook delivery requires a report download reference")
)

// terminalError marks an error the job queue must not retry. Configuration
// and precondition defects are terminal; transient upstream failures are not.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string {
	return e.err.Error()
}

func (e *terminalError) Unwrap() error {
	return e.err
}

// Terminal wraps err so IsTerminal reports true for it and anything that
// wraps it further up the stack.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}
