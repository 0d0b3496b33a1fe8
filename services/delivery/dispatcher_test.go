package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
)

type stubStrategy struct {
	calls int
}

func (s *stubStrategy) Deliver(ctx context.Context, deliveryCtx *dto.DeliveryContext) error {
	s.calls++
	return nil
}

func TestDispatcher_ResolvesKnownChannels(t *testing.T) {
	email := &stubStrategy{}
	webhook := &stubStrategy{}
	d := NewDispatcher(email, webhook)

	emailStrategy, err := d.Strategy(enum.DeliveryChannelEmail)
	require.NoError(t, err)
	assert.Same(t, email, emailStrategy)

	webhookStrategy, err := d.Strategy(enum.DeliveryChannelWebhook)
	require.NoError(t, err)
	assert.Same(t, webhook, webhookStrategy)
}

func TestDispatcher_UnknownChannelIsTerminal(t *testing.T) {
	d := NewDispatcher(&stubStrategy{}, &stubStrategy{})

	strategy, err := d.Strategy(enum.DeliveryChannel("pigeon"))

	require.Error(t, err)
	assert.Nil(t, strategy)
	assert.ErrorIs(t, err, ierrors.ErrUnknownChannel)
	assert.True(t, ierrors.IsTerminal(err))
}
