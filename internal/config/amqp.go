package config

import "os"

type AMQPConfig struct {
	URL     string
	Enabled bool
	Queue   string
}

// LoadAMQPConfig reads RABBITMQ_URL (or AMQP_URL).  Events are disabled when
// no URL is set.
func LoadAMQPConfig() AMQPConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return AMQPConfig{
		URL:     url,
		Enabled: url != "" && envBool("EVENTS_ENABLED", true),
		Queue:   getenv("EVENTS_QUEUE", "rates.refreshed"),
	}
}
