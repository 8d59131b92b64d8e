package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ RecordQueue = (*KafkaQueue)(nil)

// KafkaQueue publishes record events to a kafka topic keyed by the version chain root,
// so all versions of a document land on the same partition.
type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewKafkaQueue(brokers, topic string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}

	if topic == "" {
		topic = RecordEventTopic
	}

	q := &KafkaQueue{
		producer: producer,
		topic:    topic,
		done:     make(chan struct{}),
	}
	go q.report()

	return q, nil
}

// report logs delivery failures reported by the producer.
func (q *KafkaQueue) report() {
	defer close(q.done)
	for e := range q.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			logrus.Errorf("record event delivery failed: %v", m.TopicPartition.Error)
		}
	}
}

func (q *KafkaQueue) Publish(ctx context.Context, event RecordEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.OriginalID
	if key == "" {
		key = event.RecordID
	}

	return q.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}, nil)
}

func (q *KafkaQueue) Close() error {
	q.producer.Flush(5000)
	q.producer.Close()
	<-q.done

	return nil
}
