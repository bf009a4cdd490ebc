package lib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicName(t *testing.T) {
	t.Setenv("TOPIC_PREFIX", "")
	assert.Equal(t, "order_paid", TopicName("order.paid"))

	t.Setenv("TOPIC_PREFIX", "staging")
	t.Setenv("AWS_REGION", "ap-southeast-1")
	t.Setenv("AWS_ACCOUNT_ID", "123456789012")
	assert.Equal(t, "arn:aws:sns:ap-southeast-1:123456789012:staging_order_expired", GetTopicArn("order.expired"))
}

func TestRenderQRCode(t *testing.T) {
	img, err := RenderQRCode("ABCDEF123456")
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestNewMailMessage(t *testing.T) {
	msg, err := NewMailMessage(&SendMailInput{
		From:     "tickets@example.com",
		FromName: "Storefront",
		To:       []string{"ayu@example.com"},
		Subject:  "Your tickets",
		Body:     "<p>hi</p>",
		Html:     true,
	})
	require.NoError(t, err)
	require.Len(t, msg.GetToString(), 1)
	assert.Contains(t, msg.GetToString()[0], "ayu@example.com")

	_, err = NewMailMessage(&SendMailInput{From: "tickets@example.com", To: []string{"not an address"}})
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), "order.created", map[string]any{"reference": "ORD-1"}))
	assert.Error(t, LogPublisher{}.Publish(context.Background(), "order.created", make(chan int)))
}

func TestCachedString(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	ctx := context.Background()
	calls := 0
	fill := func() (string, error) {
		calls++
		return "https://assets.example.com/qr.jpeg", nil
	}

	mock.ExpectGet("qrcode:1").RedisNil()
	mock.ExpectSetEx("qrcode:1", "https://assets.example.com/qr.jpeg", time.Hour).SetVal("OK")
	val, err := CachedString(ctx, rdb, "qrcode:1", time.Hour, fill)
	require.NoError(t, err)
	assert.Equal(t, "https://assets.example.com/qr.jpeg", val)

	mock.ExpectGet("qrcode:1").SetVal("https://assets.example.com/qr.jpeg")
	_, err = CachedString(ctx, rdb, "qrcode:1", time.Hour, fill)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = CachedString(ctx, nil, "qrcode:1", time.Hour, func() (string, error) { return "", errors.New("s3 down") })
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
