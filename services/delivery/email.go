package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

const (
	htmlTemplateName = "daily-report.html"
	textTemplateName = "daily-report.txt"
)

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	return c
}

// EmailStrategy delivers a report as an email with the artifact attached.
type EmailStrategy struct {
	sender       interfaces.EmailSender
	templatesDir string
	log          logger.Logger
	retry        RetryConfig
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewEmailStrategy(sender interfaces.EmailSender, templatesDir string, log logger.Logger, retry RetryConfig) *EmailStrategy {
	return &EmailStrategy{
		sender:       sender,
		templatesDir: templatesDir,
		log:          log,
		retry:        retry.withDefaults(),
	}
}

func (s *EmailStrategy) Deliver(ctx context.Context, deliveryCtx *dto.DeliveryContext) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailStrategy.Deliver")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRecipient(span, deliveryCtx.Recipient.ID)
	tracing.TagReportDate(span, deliveryCtx.ReportDate)

	reportDate := deliveryCtx.ReportDate
	if reportDate == "" {
		reportDate = utils.FormatDate(utils.Now())
	}

	bodyHTML, bodyText, err := s.renderBodies(deliveryCtx.Recipient.Email, reportDate)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to prepare email delivery")
	}

	message := dto.EmailMessage{
		To:             deliveryCtx.Recipient.Email,
		Subject:        fmt.Sprintf("Your Daily Email Usage Report - %s", reportDate),
		BodyText:       bodyText,
		BodyHTML:       bodyHTML,
		AttachmentName: fmt.Sprintf("%s-report.pdf", reportDate),
		Attachment:     deliveryCtx.ReportArtifact,
	}

	// Only the outbound send is retried; template work is done exactly once.
	err = utils.Retry(ctx, utils.RetryConfig{
		MaxAttempts:    s.retry.MaxAttempts,
		InitialBackoff: s.retry.InitialBackoff,
		MaxJitter:      0.3,
		OperationName:  "sendEmail",
		Log:            s.log,
		Sleep:          s.sleep,
	}, func() error {
		return s.sender.Send(ctx, message)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "email delivery to %s failed", deliveryCtx.Recipient.Email)
	}

	return nil
}

func (s *EmailStrategy) renderBodies(recipientEmail, reportDate string) (html string, text string, err error) {
	htmlTemplate, err := os.ReadFile(filepath.Join(s.templatesDir, htmlTemplateName))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to load html template")
	}
	textTemplate, err := os.ReadFile(filepath.Join(s.templatesDir, textTemplateName))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to load text template")
	}

	vars := map[string]string{
		"recipientEmail": recipientEmail,
		"reportDate":     reportDate,
	}
	return utils.RenderTemplate(string(htmlTemplate), vars), utils.RenderTemplate(string(textTemplate), vars), nil
}
