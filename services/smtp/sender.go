package smtp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type Config struct {
	Host        string
	Port        string
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

type emailSender struct {
	cfg Config
}

// NewEmailSender sends a single message over SMTP. Retry is owned by the
// delivery strategy, not by the transport.
func NewEmailSender(cfg Config) interfaces.EmailSender {
	return &emailSender{cfg: cfg}
}

func (s *emailSender) Send(ctx context.Context, message dto.EmailMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSender.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("to", message.To, "subject", message.Subject)

	if message.To == "" {
		return errors.New("at least one recipient is required")
	}
	if message.Subject == "" {
		return errors.New("email must have a subject")
	}
	if message.BodyText == "" && message.BodyHTML == "" {
		return errors.New("email must have either text or HTML content")
	}

	buffer, err := s.buildMessage(message)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{message.To}, buffer.Bytes()); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "smtp send to %s failed", message.To)
	}

	return nil
}

// buildMessage assembles a multipart/mixed MIME message: an alternative part
// with text and HTML bodies, plus the report attachment when present.
func (s *emailSender) buildMessage(message dto.EmailMessage) (*bytes.Buffer, error) {
	buffer := bytes.NewBuffer(nil)

	mixed := multipart.NewWriter(buffer)
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress),
		"To":           message.To,
		"Subject":      message.Subject,
		"Date":         time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
		"Content-Type": "multipart/mixed; boundary=" + mixed.Boundary(),
	}
	writeHeaders(headers, buffer)

	altBuffer := bytes.NewBuffer(nil)
	alt := multipart.NewWriter(altBuffer)
	if message.BodyText != "" {
		if err := writePart(alt, "text/plain; charset=utf-8", message.BodyText); err != nil {
			return nil, err
		}
	}
	if message.BodyHTML != "" {
		if err := writePart(alt, "text/html; charset=utf-8", message.BodyHTML); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + alt.Boundary()},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuffer.Bytes()); err != nil {
		return nil, err
	}

	if len(message.Attachment) > 0 {
		name := message.AttachmentName
		if name == "" {
			name = "report.pdf"
		}
		part, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/pdf; name=\"" + name + "\""},
			"Content-Disposition":       {"attachment; filename=\"" + name + "\""},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(message.Attachment)
		for len(encoded) > 0 {
			lineLen := 76
			if len(encoded) < lineLen {
				lineLen = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[:lineLen] + "\r\n")); err != nil {
				return nil, err
			}
			encoded = encoded[lineLen:]
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}

	return buffer, nil
}

func writePart(writer *multipart.Writer, contentType, body string) error {
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {contentType},
	})
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}

func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	for _, key := range []string{"From", "To", "Subject", "Date", "MIME-Version", "Content-Type"} {
		if value, ok := headers[key]; ok {
			buffer.WriteString(key + ": " + value + "\r\n")
		}
	}
	buffer.WriteString("\r\n")
}
