package delivery

import (
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
)

// Dispatcher resolves a recipient's preferred channel to its delivery
// strategy. The strategy set is closed and built once at startup; a lookup
// miss is a configuration defect and never retried.
type Dispatcher struct {
	strategies map[enum.DeliveryChannel]interfaces.DeliveryStrategy
}

func NewDispatcher(email, webhook interfaces.DeliveryStrategy) *Dispatcher {
	return &Dispatcher{
		strategies: map[enum.DeliveryChannel]interfaces.DeliveryStrategy{
			enum.DeliveryChannelEmail:   email,
			enum.DeliveryChannelWebhook: webhook,
		},
	}
}

func (d *Dispatcher) Strategy(channel enum.DeliveryChannel) (interfaces.DeliveryStrategy, error) {
	strategy, ok := d.strategies[channel]
	if !ok {
		return nil, ierrors.Terminal(errors.Wrapf(ierrors.ErrUnknownChannel, "channel %q", channel))
	}
	return strategy, nil
}
