package mq

import (
	"clmm-price-sol/internal/config"
	"clmm-price-sol/pkg/logger"
	"context"
	"fmt"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"os"
	"time"
)

const (
	defaultBatchSize  = 32 * 1024
	defaultLingerMs   = 5
	defaultPartitions = 1
)

// NewKafkaProducer 创建 Kafka 生产者，topic 不存在时先创建
func NewKafkaProducer(cfg config.KafkaProducerConfig) (*kafka.Producer, error) {
	if err := ensureTopic(cfg); err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}

	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		// 基础连接
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("clmm-inspector-%s", host),

		// 可靠性保障
		"acks":                                  "all", // 必须
		"enable.idempotence":                    true,  // 幂等开启
		"max.in.flight.requests.per.connection": 5,     // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,   // 重试次数必须 > 0
		"retry.backoff.ms":    100, // 重试间隔

		// 性能优化
		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return producer, nil
}

func ensureTopic(cfg config.KafkaProducerConfig) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := adminClient.GetMetadata(&cfg.Topic, false, 10000)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	if t, ok := meta.Topics[cfg.Topic]; ok && t.Error.Code() == kafka.ErrNoError {
		return nil
	}

	// replicationFactor 是每个分区副本的数量
	replicationFactor := 1
	if len(meta.Brokers) > 1 {
		replicationFactor = 2
	}
	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = defaultPartitions
	}
	logger.Infof("[mq] 创建 topic %s: partitions=%d, replication=%d", cfg.Topic, partitions, replicationFactor)

	results, err := adminClient.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             cfg.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	for _, result := range results {
		code := result.Error.Code()
		if code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
	}
	return nil
}
