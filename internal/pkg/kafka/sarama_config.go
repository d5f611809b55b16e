package kafka

import (
	"Parlor/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 生产者与消费者共用的 sarama 配置
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Return.Successes = true
	c.Producer.Retry.Max = 3
	c.Producer.Partitioner = sarama.NewHashPartitioner

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Offsets.AutoCommit.Enable = false

	c.Consumer.Group.Session.Timeout = seconds(kafkaCfg.Consumer.SessionTimeout, 10)
	c.Consumer.Group.Heartbeat.Interval = seconds(kafkaCfg.Consumer.HeartbeatInterval, 3)
	c.Consumer.Group.Rebalance.Timeout = seconds(kafkaCfg.Consumer.RebalanceTimeout, 60)
	c.Consumer.MaxProcessingTime = seconds(kafkaCfg.Consumer.MaxProcessingTime, 1)

	return c
}

// seconds 未配置时使用 sarama 的默认值
func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
