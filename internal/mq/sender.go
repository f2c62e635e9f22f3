package mq

import (
	"context"
	"errors"
	"fmt"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"time"
)

// KafkaJob 表示一条需要发送的 Kafka 消息
type KafkaJob struct {
	Topic     string
	Partition int32 // kafka.PartitionAny 表示交给 partitioner
	Key       []byte
	Value     []byte
}

// KafkaSendResult 表示每条消息的发送结果
type KafkaSendResult struct {
	Job *KafkaJob
	Err error
}

// SendKafkaJobs 先把全部消息交给 producer，再逐条等待投递报告。
// results[i] 对应 jobs[i]；等待总时长不超过 perMessageTimeout，外部 ctx 可提前取消
func SendKafkaJobs(
	ctx context.Context,
	producer *kafka.Producer,
	jobs []*KafkaJob,
	perMessageTimeout time.Duration,
) []KafkaSendResult {
	results := make([]KafkaSendResult, len(jobs))
	deliveries := make([]chan kafka.Event, len(jobs))

	for i, job := range jobs {
		results[i].Job = job
		ch := make(chan kafka.Event, 1)
		err := producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &job.Topic,
				Partition: job.Partition,
			},
			Key:   job.Key,
			Value: job.Value,
		}, ch)
		if err != nil {
			results[i].Err = fmt.Errorf("produce error: %w", err)
			continue
		}
		deliveries[i] = ch
	}

	waitCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
	defer cancel()

	for i, ch := range deliveries {
		if ch == nil {
			continue
		}
		results[i].Err = awaitDelivery(ctx, waitCtx, ch, perMessageTimeout)
	}
	return results
}

// FailedResults 过滤出失败的发送结果
func FailedResults(results []KafkaSendResult) []KafkaSendResult {
	var failed []KafkaSendResult
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func awaitDelivery(parent, waitCtx context.Context, ch chan kafka.Event, timeout time.Duration) error {
	select {
	case e, ok := <-ch:
		if !ok {
			return errors.New("delivery channel closed unexpectedly")
		}
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("invalid message type: %T", e)
		}
		return msg.TopicPartition.Error
	case <-waitCtx.Done():
		// 投递报告迟早会写入 ch，缓冲为 1 不会阻塞 librdkafka 回调
		if parent.Err() != nil {
			return fmt.Errorf("ctx cancelled: %w", parent.Err())
		}
		return fmt.Errorf("delivery timeout (>%v)", timeout)
	}
}
