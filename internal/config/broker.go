package config

// BrokerConfig holds the RabbitMQ settings for the startup announcement.
// An empty URL disables publishing.
type BrokerConfig struct {
	URL   string
	Queue string
}

// LoadBrokerConfig reads RABBITMQ_URL (or AMQP_URL) and LIFECYCLE_QUEUE.
func LoadBrokerConfig() BrokerConfig {
	url := getenv("RABBITMQ_URL", "")
	if url == "" {
		url = getenv("AMQP_URL", "")
	}
	return BrokerConfig{
		URL:   url,
		Queue: getenv("LIFECYCLE_QUEUE", "service.lifecycle"),
	}
}

// Enabled reports whether a broker URL was configured.
func (b BrokerConfig) Enabled() bool { return b.URL != "" }
