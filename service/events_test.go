package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewEventPublisher_Disabled(t *testing.T) {
	p, err := NewEventPublisher(&config.AMQPConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), ExpenseEvent{}))
	assert.NoError(t, p.Close())
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "expenses", routingKey: "expense-events"}

	expense := &models.Expense{
		ID:          7,
		UserID:      3,
		Amount:      decimal.RequireFromString("12.50"),
		Category:    models.CategoryFood,
		ExpenseTime: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	event := NewExpenseEvent(EventExpenseCreated, expense)
	require.NoError(t, p.Publish(context.Background(), event))

	assert.Equal(t, "expenses", ch.exchange)
	assert.Equal(t, "expense-events", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, EventExpenseCreated, ch.msg.Type)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "expense.created", body["type"])
	assert.Equal(t, float64(7), body["expense_id"])
	assert.Equal(t, float64(3), body["user_id"])
	assert.Equal(t, 12.5, body["amount"])
	assert.Equal(t, models.CategoryFood, body["category"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	p := &AMQPPublisher{channel: &fakeChannel{err: errors.New("channel closed")}}
	err := p.Publish(context.Background(), ExpenseEvent{Type: EventExpenseDeleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}
