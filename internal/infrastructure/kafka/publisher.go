package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

type KafkaConfig struct {
	Brokers    []string
	Topic      string
	Username   string
	Password   string
	Mechanism  string
	TLSEnabled bool
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// NewKafkaPublisherFromConfig builds a publisher with optional SASL and TLS
// for managed clusters. An empty username means an unauthenticated local
// broker.
func NewKafkaPublisherFromConfig(cfg KafkaConfig) (*KafkaPublisher, error) {
	if cfg.Username == "" && !cfg.TLSEnabled {
		return NewKafkaPublisher(cfg.Brokers, cfg.Topic), nil
	}

	transport := &kafka.Transport{}
	if cfg.TLSEnabled {
		transport.TLS = &tls.Config{}
	}
	if cfg.Username != "" {
		var mechanism sasl.Mechanism
		switch cfg.Mechanism {
		case "SCRAM-SHA-256":
			m, err := scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
			if err != nil {
				return nil, err
			}
			mechanism = m
		case "SCRAM-SHA-512":
			m, err := scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
			if err != nil {
				return nil, err
			}
			mechanism = m
		default:
			mechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		}
		transport.SASL = mechanism
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:      kafka.TCP(cfg.Brokers...),
			Topic:     cfg.Topic,
			Balancer:  &kafka.LeastBytes{},
			Transport: transport,
		},
	}, nil
}

func (k *KafkaPublisher) publish(key string, event interface{}) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: msg,
		Time:  time.Now(),
	})
}

func (k *KafkaPublisher) PublishTrade(event TradeEvent) error {
	return k.publish(event.TradeID, event)
}

func (k *KafkaPublisher) PublishDispute(event DisputeEvent) error {
	return k.publish(event.TradeID, event)
}
