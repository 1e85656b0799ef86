package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// 消费记录事件类型
const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent 消费记录变更事件
type ExpenseEvent struct {
	Type       string          `json:"type"`
	ExpenseID  uint            `json:"expense_id"`
	UserID     uint            `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	OccurredAt time.Time       `json:"occurred_at"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewExpenseEvent 由消费记录生成事件
func NewExpenseEvent(eventType string, e *models.Expense) ExpenseEvent {
	return ExpenseEvent{
		Type:       eventType,
		ExpenseID:  e.ID,
		UserID:     e.UserID,
		Amount:     e.Amount,
		Category:   e.Category,
		OccurredAt: e.ExpenseTime,
		Timestamp:  time.Now(),
	}
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(ctx context.Context, event ExpenseEvent) error
	Close() error
}

// NewEventPublisher 根据配置创建发布者，未启用时返回空实现
func NewEventPublisher(cfg *config.AMQPConfig) (EventPublisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	return NewAMQPPublisher(cfg.URL, cfg.Exchange, cfg.RoutingKey)
}

// NoopPublisher 不做任何事
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ExpenseEvent) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }

// amqpChannel amqp091.Channel 中用到的方法
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher 通过 RabbitMQ direct exchange 推送事件
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    amqpChannel
	exchange   string
	routingKey string
}

// NewAMQPPublisher 连接 RabbitMQ 并声明 exchange 与同名队列
func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接 AMQP 失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 channel 失败: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 exchange 失败: %w", err)
	}
	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明队列失败: %w", err)
	}
	if err := ch.QueueBind(routingKey, routingKey, exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("绑定队列失败: %w", err)
	}

	log.Printf("AMQP 事件推送已启用: exchange=%s routing_key=%s", exchange, routingKey)
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, routingKey: routingKey}, nil
}

// Publish 发布事件，5 秒超时
func (p *AMQPPublisher) Publish(ctx context.Context, event ExpenseEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Type:         event.Type,
		Timestamp:    event.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Close 关闭 channel 与连接
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
