package config

import (
	"errors"
)

// QueueConfig defines the RabbitMQ connection used for publishing
// reward-found events. The whole section is optional; a missing section
// disables publishing.
type QueueConfig struct {
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	URL       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue-name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Username == "" {
		return errors.New("queue username cannot be empty")
	}
	if cfg.Password == "" {
		return errors.New("queue password cannot be empty")
	}
	if cfg.URL == "" {
		return errors.New("queue url cannot be empty")
	}
	if cfg.QueueName == "" {
		return errors.New("queue name cannot be empty")
	}
	return nil
}
