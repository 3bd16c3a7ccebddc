package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/voltride/rental-service/pkg/breaker"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	RentalTopic = "rental-events"
)

// EventRental is published on reservation lifecycle transitions so the
// notification service can deliver confirmations.
type EventRental struct {
	Event          string    `json:"event"`
	ReservationUid string    `json:"reservationUid"`
	CustomerID     string    `json:"customerId"`
	At             time.Time `json:"at"`
}

const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
)

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher interface {
	Publish(topic string, v any) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }

func NewPublisher(producer sarama.SyncProducer) Publisher {
	return &publisherImpl{producer: producer}
}

type publisherImpl struct {
	producer sarama.SyncProducer
}

func (p *publisherImpl) Publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}

// NewBreakerPublisher sheds publishes while the broker is failing so a
// dead Kafka cannot slow down confirm and return requests, which only
// emit events best-effort.
func NewBreakerPublisher(p Publisher, b *breaker.Breaker) Publisher {
	return &breakerPublisher{inner: p, cb: b}
}

type breakerPublisher struct {
	inner Publisher
	cb    *breaker.Breaker
}

func (p *breakerPublisher) Publish(topic string, v any) error {
	return p.cb.Call(func() error {
		return p.inner.Publish(topic, v)
	})
}
