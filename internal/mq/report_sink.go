package mq

import (
	"clmm-price-sol/internal/config"
	"clmm-price-sol/pkg/logger"
	"clmm-price-sol/pkg/utils"
	"context"
	"errors"
	"fmt"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"time"
)

const defaultSendTimeout = 3 * time.Second

// KafkaReportSink 把成功的价格报告发送到 Kafka，key 为池子地址
type KafkaReportSink struct {
	producer    *kafka.Producer
	topic       string
	partitions  int
	format      string
	sendTimeout time.Duration
}

func NewKafkaReportSink(cfg config.KafkaProducerConfig) (*KafkaReportSink, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka_producer.topic is empty")
	}
	switch cfg.Format {
	case "", FormatJSON, FormatProto:
	default:
		return nil, fmt.Errorf("unsupported kafka_producer.format %q", cfg.Format)
	}

	producer, err := NewKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.SendTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &KafkaReportSink{
		producer:    producer,
		topic:       cfg.Topic,
		partitions:  cfg.Partitions,
		format:      cfg.Format,
		sendTimeout: timeout,
	}, nil
}

// Publish 发送一批报告并等待投递结果，任一条失败即返回汇总错误
func (s *KafkaReportSink) Publish(ctx context.Context, msgs []ReportMessage) error {
	jobs, err := buildJobs(s.topic, s.partitions, s.format, msgs)
	if err != nil {
		return err
	}

	failed := FailedResults(SendKafkaJobs(ctx, s.producer, jobs, s.sendTimeout))
	logger.Debugf("[KafkaReportSink] 发送完成: total=%d, failed=%d", len(jobs), len(failed))
	if len(failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, fmt.Errorf("pool %s: %w", f.Job.Key, f.Err))
	}
	return errors.Join(errs...)
}

// Close 等待未完成消息发送后关闭生产者
func (s *KafkaReportSink) Close() {
	if remaining := s.producer.Flush(int(s.sendTimeout.Milliseconds())); remaining > 0 {
		logger.Warnf("[KafkaReportSink] 关闭时仍有 %d 条消息未发送", remaining)
	}
	s.producer.Close()
}

func buildJobs(topic string, partitions int, format string, msgs []ReportMessage) ([]*KafkaJob, error) {
	jobs := make([]*KafkaJob, 0, len(msgs))
	for i := range msgs {
		value, err := msgs[i].Encode(format)
		if err != nil {
			return nil, err
		}

		partition := kafka.PartitionAny
		if partitions > 1 {
			partition = int32(utils.PartitionHashBytes(msgs[i].Pool[:], uint32(partitions)))
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     topic,
			Partition: partition,
			Key:       []byte(msgs[i].Pool.String()),
			Value:     value,
		})
	}
	return jobs, nil
}
