package smtp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
)

func testConfig() Config {
	return Config{
		Host:        "smtp.acme.com",
		Port:        "587",
		Username:    "reports",
		Password:    "secret",
		FromAddress: "reports@acme.com",
		FromName:    "Usage Reports",
	}
}

func TestSend_ValidatesMessage(t *testing.T) {
	sender := &emailSender{cfg: testConfig()}

	err := sender.Send(context.Background(), dto.EmailMessage{Subject: "s", BodyText: "b"})
	assert.ErrorContains(t, err, "recipient")

	err = sender.Send(context.Background(), dto.EmailMessage{To: "ops@acme.com", BodyText: "b"})
	assert.ErrorContains(t, err, "subject")

	err = sender.Send(context.Background(), dto.EmailMessage{To: "ops@acme.com", Subject: "s"})
	assert.ErrorContains(t, err, "content")
}

func TestBuildMessage_MultipartWithAttachment(t *testing.T) {
	sender := &emailSender{cfg: testConfig()}

	buffer, err := sender.buildMessage(dto.EmailMessage{
		To:             "ops@acme.com",
		Subject:        "Your Daily Email Usage Report - 2025-05-31",
		BodyText:       "plain body",
		BodyHTML:       "<p>html body</p>",
		AttachmentName: "2025-05-31-report.pdf",
		Attachment:     []byte("pdf-bytes"),
	})

	require.NoError(t, err)
	raw := buffer.String()

	assert.Contains(t, raw, "From: Usage Reports <reports@acme.com>")
	assert.Contains(t, raw, "To: ops@acme.com")
	assert.Contains(t, raw, "Subject: Your Daily Email Usage Report - 2025-05-31")
	assert.Contains(t, raw, "multipart/mixed")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "plain body")
	assert.Contains(t, raw, "<p>html body</p>")
	assert.Contains(t, raw, `filename="2025-05-31-report.pdf"`)
	assert.Contains(t, raw, "Content-Transfer-Encoding: base64")
}

func TestBuildMessage_NoAttachment(t *testing.T) {
	sender := &emailSender{cfg: testConfig()}

	buffer, err := sender.buildMessage(dto.EmailMessage{
		To:       "ops@acme.com",
		Subject:  "s",
		BodyText: "plain body",
	})

	require.NoError(t, err)
	assert.NotContains(t, buffer.String(), "Content-Disposition: attachment")
}
