package kafka_config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Brokers:              []string{"localhost:9092"},
		ProducerMaxAttempts:  DefaultProducerMaxAttempts,
		ProducerBatchTimeout: DefaultProducerBatchTimeout,
		ProducerRequireAcks:  DefaultProducerRequireAcks,
		ProducerCompression:  DefaultProducerCompression,
		ConsumerStartOffset:  DefaultConsumerStartOffset,
		ConsumerMaxWait:      DefaultConsumerMaxWait,
		ConsumerCommitEvery:  DefaultConsumerCommitEvery,
		ConsumerMaxRetries:   DefaultConsumerMaxRetries,
		ConsumerRetryBackoff: DefaultConsumerRetryBackoff,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidate_AccumulatesProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Brokers = nil
	cfg.ProducerCompression = "brotli"
	cfg.ConsumerMaxRetries = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"1.", "2.", "3.", "brotli"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to contain %q, got %v", want, err)
		}
	}
}

func TestSplitBrokers(t *testing.T) {
	got := splitBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", got)
	}
}
