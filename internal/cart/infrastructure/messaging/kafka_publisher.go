// Package messaging 购物车领域事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/onlineordering/internal/cart/domain"
	"github.com/wyfcoding/onlineordering/pkg/mq"
)

type kafkaPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaPublisher 创建基于 Kafka 的事件发布者
func NewKafkaPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.producer.SendJSON(ctx, topic, key, event)
}
