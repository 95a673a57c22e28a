package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const OrderPaidQueue = "order.paid"

type OrderPaid struct {
	EventType       string    `json:"eventType"`
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher announces paid orders on the default exchange so downstream
// consumers (fulfilment, analytics) can react without polling the store.
type Publisher struct {
	ch *amqp.Channel
}

func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue so publish never fails due to missing infra
	if _, err := ch.QueueDeclare(OrderPaidQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderPaidQueue, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, orderID, paymentIntentID string) error {
	ev := OrderPaid{
		EventType:       "OrderPaid",
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		Timestamp:       time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",             // default exchange
		OrderPaidQueue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
