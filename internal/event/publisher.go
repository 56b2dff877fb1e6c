package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	AttemptSubmitted   = "attempt.submitted"
	CourseCompleted    = "course.completed"
	CertificateIssued  = "certificate.issued"
	CertificateRevoked = "certificate.revoked"
)

// Publisher 领域事件出口；调用方在事务提交之后发布
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewAMQPPublisher(amqpURL, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return err
	}

	// amqp.Channel 不是并发安全的
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(
		p.exchange,
		eventType, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Error("Failed to publish event", zap.String("type", eventType), zap.Error(err))
		return err
	}
	p.log.Debug("Event published", zap.String("type", eventType))
	return nil
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogPublisher 未配置消息队列时使用，只记录结构化日志
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	p.log.Info("event", zap.String("type", eventType), zap.Any("payload", payload))
	return nil
}

// Recorder 收集事件，测试用
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Type    string
	Payload interface{}
}

func (r *Recorder) Publish(_ context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Type: eventType, Payload: payload})
	return nil
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
