package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// KafkaConfig holds audit topic settings.
type KafkaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Brokers    string `mapstructure:"brokers"`
	Topic      string `mapstructure:"topic"`
	Partitions int    `mapstructure:"partitions"`
}

// KafkaRecorder produces audit entries to a Kafka topic so downstream
// consumers (the marketplace's audit-log pipeline) can persist them.
type KafkaRecorder struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewKafkaRecorder creates a recorder producing to the configured topic.
func NewKafkaRecorder(cfg KafkaConfig) (*KafkaRecorder, error) {
	if err := ensureTopic(cfg.Brokers, cfg.Topic, cfg.Partitions); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", cfg.Topic).Msg("failed to ensure audit topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	r := &KafkaRecorder{
		producer: p,
		topic:    cfg.Topic,
		doneCh:   make(chan struct{}),
	}
	go r.deliveryReportHandler()

	return r, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if partitions < 1 {
		partitions = 1
	}
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (r *KafkaRecorder) deliveryReportHandler() {
	for e := range r.producer.Events() {
		if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
			l := log.L()
			l.Warn().Err(msg.TopicPartition.Error).Msg("audit delivery failed")
		}
	}
	close(r.doneCh)
}

// Record produces the entry. Failures are logged and swallowed; auditing
// never fails the audited operation.
func (r *KafkaRecorder) Record(ctx context.Context, e Entry) {
	value, err := json.Marshal(e)
	if err != nil {
		return
	}

	// Key by actor for per-actor ordering.
	err = r.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &r.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(e.ActorID),
		Value: value,
	}, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("action", e.Action).Msg("failed to produce audit entry")
	}
}

// Close flushes and closes the producer.
func (r *KafkaRecorder) Close() error {
	r.producer.Flush(5000)
	r.producer.Close()
	<-r.doneCh
	return nil
}
