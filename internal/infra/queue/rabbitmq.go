package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// RabbitEventQueue реализует очередь событий вовлечения через AMQP.
type RabbitEventQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
	consume    func(ctx context.Context) (<-chan amqp.Delivery, error)
}

var _ domain.EventQueue = (*RabbitEventQueue)(nil)

// NewRabbitEventQueue подключается к RabbitMQ и объявляет долговечную очередь.
func NewRabbitEventQueue(amqpURL, queue string) (*RabbitEventQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	q := &RabbitEventQueue{conn: conn, channel: channel, queue: queue}
	q.consume = func(ctx context.Context) (<-chan amqp.Delivery, error) {
		return channel.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	}
	return q, nil
}

// Publish публикует событие в очередь.
func (q *RabbitEventQueue) Publish(ctx context.Context, event domain.EngagementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// deliveryChan лениво оформляет единственную подписку на очередь.
// Повторная подписка на каждый вызов Receive плодила бы брошенных
// потребителей, между которыми брокер раскидывал бы доставки.
func (q *RabbitEventQueue) deliveryChan(ctx context.Context) (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries == nil {
		deliveries, err := q.consume(ctx)
		if err != nil {
			return nil, fmt.Errorf("consume: %w", err)
		}
		q.deliveries = deliveries
	}
	return q.deliveries, nil
}

func (q *RabbitEventQueue) resetDeliveries() {
	q.mu.Lock()
	q.deliveries = nil
	q.mu.Unlock()
}

// Receive блокирующе читает событие из очереди с ручным подтверждением.
func (q *RabbitEventQueue) Receive(ctx context.Context) (domain.EngagementEvent, domain.EventAckFunc, error) {
	deliveries, err := q.deliveryChan(ctx)
	if err != nil {
		return domain.EngagementEvent{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.EngagementEvent{}, nil, ctx.Err()
	case delivery, ok := <-deliveries:
		if !ok {
			q.resetDeliveries()
			return domain.EngagementEvent{}, nil, errors.New("rabbitmq queue: канал доставки закрыт")
		}
		var event domain.EngagementEvent
		if err := json.Unmarshal(delivery.Body, &event); err != nil {
			_ = delivery.Nack(false, false)
			return domain.EngagementEvent{}, nil, fmt.Errorf("decode event: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return delivery.Ack(false)
			}
			return delivery.Nack(false, true)
		}
		return event, ack, nil
	}
}

// Close закрывает канал и подключение.
func (q *RabbitEventQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
