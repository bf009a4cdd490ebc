package common

import (
	"context"
	"errors"
	"fmt"
	"storefront/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type bridgeMock struct {
	mock.Mock
}

func (m *bridgeMock) Handle(ctx context.Context, ev types.PaymentEvent) error {
	return m.Called(ctx, ev).Error(0)
}

const succeeded = `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded","amount":330000,"metadata":{"order_id":"abc"}}}}`

func TestPaymentEventHandler(t *testing.T) {
	b := new(bridgeMock)
	h := PaymentEventHandler(b)
	ctx := context.Background()

	b.On("Handle", mock.Anything, mock.MatchedBy(func(ev types.PaymentEvent) bool {
		return ev.ID == "evt_1" && ev.Type == types.PAYMENT_SUCCEEDED && ev.Object.ID == "pi_1"
	})).Return(nil).Once()
	assert.NoError(t, h(ctx, succeeded))

	b.On("Handle", mock.Anything, mock.Anything).Return(types.ErrAlreadyProcessed).Once()
	assert.NoError(t, h(ctx, succeeded))

	b.On("Handle", mock.Anything, mock.Anything).Return(types.ErrOrderNotFound).Once()
	assert.NoError(t, h(ctx, succeeded))

	b.On("Handle", mock.Anything, mock.Anything).Return(&types.TransitionError{From: types.ORDER_EXPIRED, To: types.ORDER_PAID}).Once()
	assert.NoError(t, h(ctx, succeeded))

	b.On("Handle", mock.Anything, mock.Anything).Return(errors.New("database is locked")).Once()
	assert.Error(t, h(ctx, succeeded))

	// a missing event is not a missing order, the message stays queued
	b.On("Handle", mock.Anything, mock.Anything).Return(fmt.Errorf("issue tickets: %w", types.ErrEventNotFound)).Once()
	assert.ErrorIs(t, h(ctx, succeeded), types.ErrEventNotFound)

	assert.NoError(t, h(ctx, `{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`))
	assert.NoError(t, h(ctx, `not json`))
	b.AssertNumberOfCalls(t, "Handle", 6)
}

func TestUnwrapSNS(t *testing.T) {
	env := `{"Type":"Notification","MessageId":"m1","Message":"{\"id\":\"evt_1\"}"}`
	assert.Equal(t, `{"id":"evt_1"}`, unwrapSNS(env))
	assert.Equal(t, succeeded, unwrapSNS(succeeded))
}
