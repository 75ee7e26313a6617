package events

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rl1809/storefront/internal/core/domain"
)

type fakeStream struct {
	events []domain.CartEvent
	err    error
}

func (f *fakeStream) AppendEvent(ctx context.Context, event domain.CartEvent) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.events = append(f.events, event)
	return f.err
}

func TestLogSubscriber(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := LogSubscriber(zap.New(core))

	event := testEvent()
	event.UnitPrice = decimal.RequireFromString("9.99")
	require.NoError(t, h(context.Background(), event))

	entries := logs.FilterMessage("cart event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "9.99", entries[0].ContextMap()["unit_price"])
	assert.Equal(t, "cart.item_added", entries[0].ContextMap()["type"])
}

func TestStreamSubscriber(t *testing.T) {
	stream := &fakeStream{}
	h := StreamSubscriber(stream)

	require.NoError(t, h(context.Background(), testEvent()))
	assert.Len(t, stream.events, 1)

	stream.err = errors.New("redis down")
	assert.Error(t, h(context.Background(), testEvent()))
}
