// Package events publishes domain events to a RabbitMQ topic exchange.
// Publishing is best-effort and happens after the owning transaction commits.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys
const (
	ListingPublished = "listing.published"
	ListingBlocked   = "listing.blocked"
	UserRegistered   = "user.registered"
	CreditsAdded     = "credits.added"
	ExtraActivated   = "extra.activated"
	AdActivated      = "ad.activated"
	PaymentReceived  = "payment.received"
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session is one connection and channel pair. closed fires when the broker
// or the network drops either of them.
type session struct {
	ch        channel
	closeConn func() error
	closed    <-chan *amqp.Error
}

func (s *session) close() {
	_ = s.ch.Close()
	if s.closeConn != nil {
		_ = s.closeConn()
	}
}

// AMQPPublisher re-dials lazily on the next publish after the session is lost.
type AMQPPublisher struct {
	mu       sync.Mutex
	dial     func() (*session, error)
	cur      *session
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := newAMQPPublisher(exchange, func() (*session, error) { return dialSession(url, exchange) })
	if _, err := p.session(); err != nil {
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(exchange string, dial func() (*session, error)) *AMQPPublisher {
	return &AMQPPublisher{dial: dial, exchange: exchange}
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	// A connection close also closes its channels, so one watcher covers both.
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return &session{ch: ch, closeConn: conn.Close, closed: closed}, nil
}

// session returns the live session, dialing a new one if the last was closed.
// Callers hold p.mu.
func (p *AMQPPublisher) session() (*session, error) {
	if p.cur != nil {
		select {
		case <-p.cur.closed:
			p.reset()
		default:
			return p.cur, nil
		}
	}
	s, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.cur = s
	return s, nil
}

func (p *AMQPPublisher) reset() {
	if p.cur != nil {
		p.cur.close()
		p.cur = nil
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := p.session()
	if err != nil {
		return err
	}
	err = s.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
	if errors.Is(err, amqp.ErrClosed) {
		p.reset()
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return nil
	}
	_ = p.cur.ch.Close()
	var err error
	if p.cur.closeConn != nil {
		err = p.cur.closeConn()
	}
	p.cur = nil
	return err
}

// Noop drops every event. Used when RABBITMQ_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// Emit publishes and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, log *zap.Logger, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, payload); err != nil {
		log.Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

type Event struct {
	Key     string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Key: key, Payload: payload})
	return nil
}

// Keys returns the routing keys published so far.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.Events))
	for i, e := range r.Events {
		keys[i] = e.Key
	}
	return keys
}
