package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/moa-platform/checkout-service/internal/kafka"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// CheckoutEvent представляет событие жизненного цикла чекаута для Kafka
type CheckoutEvent struct {
	UserID    string    `json:"user_id"`
	PartyID   int64     `json:"party_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutProducer интерфейс для отправки событий чекаута
type CheckoutProducer interface {
	PublishPartyCreated(ctx context.Context, userID string, partyID, amount int64) error
	PublishPartyJoined(ctx context.Context, userID string, partyID, amount int64) error
	PublishDepositPaid(ctx context.Context, userID string, partyID, amount int64) error
	PublishDepositRetried(ctx context.Context, userID string, partyID, amount int64) error
	Close() error
}

type kafkaCheckoutProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaCheckoutProducer создает новый продюсер событий чекаута
func NewKafkaCheckoutProducer(producer sarama.SyncProducer, log *logger.Logger) CheckoutProducer {
	return &kafkaCheckoutProducer{
		producer: producer,
		log:      log,
	}
}

// PublishPartyCreated публикует событие о создании пати
func (p *kafkaCheckoutProducer) PublishPartyCreated(ctx context.Context, userID string, partyID, amount int64) error {
	return p.publishEvent(kafka.TopicPartyCreated, userID, partyID, amount)
}

// PublishPartyJoined публикует событие о вступлении в пати
func (p *kafkaCheckoutProducer) PublishPartyJoined(ctx context.Context, userID string, partyID, amount int64) error {
	return p.publishEvent(kafka.TopicPartyJoined, userID, partyID, amount)
}

// PublishDepositPaid публикует событие об оплате депозита
func (p *kafkaCheckoutProducer) PublishDepositPaid(ctx context.Context, userID string, partyID, amount int64) error {
	return p.publishEvent(kafka.TopicDepositPaid, userID, partyID, amount)
}

// PublishDepositRetried публикует событие о повторной оплате депозита
func (p *kafkaCheckoutProducer) PublishDepositRetried(ctx context.Context, userID string, partyID, amount int64) error {
	return p.publishEvent(kafka.TopicDepositRetried, userID, partyID, amount)
}

// publishEvent публикует событие чекаута в Kafka.
// Ключ сообщения -- ID пати: все события одной пати попадают в одну
// партицию и сохраняют порядок.
func (p *kafkaCheckoutProducer) publishEvent(topic, userID string, partyID, amount int64) error {
	event := CheckoutEvent{
		UserID:    userID,
		PartyID:   partyID,
		Amount:    amount,
		Timestamp: time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", partyID)),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish checkout event", "topic", topic, "error", err)
		return fmt.Errorf("failed to publish checkout event: %w", err)
	}

	p.log.Debugw("Checkout event published", "topic", topic, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер
func (p *kafkaCheckoutProducer) Close() error {
	return p.producer.Close()
}
