package transport

import (
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/varfrog/msgstream/generator/internal/app"
	"github.com/varfrog/msgstream/pkg/sdk"
)

// KafkaMessageWriter is the part of *kafka.Writer used by KafkaRecordRecipient.
type KafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaRecordRecipient implements app.RecordRecipient by producing every record to a Kafka topic. The record key is
// the message key, so all records of a run land on the same partition and keep their order.
type KafkaRecordRecipient struct {
	writer KafkaMessageWriter
}

var _ app.RecordRecipient = (*KafkaRecordRecipient)(nil)

func NewKafkaRecordRecipient(writer KafkaMessageWriter) *KafkaRecordRecipient {
	return &KafkaRecordRecipient{writer: writer}
}

// NewKafkaWriter creates a writer that sends each record as soon as it is produced.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		RequiredAcks: kafka.RequireOne,
	}
}

func (s *KafkaRecordRecipient) SendRecord(ctx context.Context, record sdk.MessageRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.Key),
		Value: value,
	})
	if err != nil {
		return errors.Wrap(err, "writer.WriteMessages")
	}
	return nil
}
