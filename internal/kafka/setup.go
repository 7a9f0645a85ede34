package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moa-platform/checkout-service/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Топики событий жизненного цикла чекаута
const (
	TopicPartyCreated   = "party.created"
	TopicPartyJoined    = "party.joined"
	TopicDepositPaid    = "deposit.paid"
	TopicDepositRetried = "deposit.retried"
)

// EnsureTopics проверяет и создает необходимые топики Kafka
func EnsureTopics(brokers []string, log *logger.Logger) error {
	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}

	requiredTopics := []kafkaGo.TopicConfig{
		{Topic: TopicPartyCreated, NumPartitions: 3, ReplicationFactor: 1},
		{Topic: TopicPartyJoined, NumPartitions: 3, ReplicationFactor: 1},
		{Topic: TopicDepositPaid, NumPartitions: 3, ReplicationFactor: 1},
		{Topic: TopicDepositRetried, NumPartitions: 1, ReplicationFactor: 1},
	}

	connCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", brokers[0], "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existing := make(map[string]bool)
	for _, p := range partitions {
		existing[p.Topic] = true
	}

	var toCreate []kafkaGo.TopicConfig
	for _, topic := range requiredTopics {
		if !existing[topic.Topic] {
			toCreate = append(toCreate, topic)
		}
	}

	if len(toCreate) == 0 {
		log.Debugw("All Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(toCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("One or more topics already existed during creation attempt")
			return nil
		}
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Infow("Kafka topics created", "count", len(toCreate))
	return nil
}
