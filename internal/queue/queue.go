package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/verus-tools/staking-rewards-indexer/internal/config"
	"github.com/verus-tools/staking-rewards-indexer/internal/observability/metrics"
)

// StakeRewardEvent is published once per newly inserted reward. It is a
// trigger for downstream consumers (dashboard, notifiers), not a delivery
// guarantee: consumers must treat the reward ledger as the source of truth.
type StakeRewardEvent struct {
	IdentityAddress string `json:"identity_address"`
	TxID            string `json:"txid"`
	Vout            uint32 `json:"vout"`
	BlockHeight     int64  `json:"block_height"`
	AmountSats      int64  `json:"amount_sats"`
}

type QueueManager struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.Username, cfg.Password, cfg.URL)
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	// durable queue so events survive broker restarts
	if _, err := channel.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &QueueManager{
		conn:      conn,
		channel:   channel,
		queueName: cfg.QueueName,
		logger:    logger.With(zap.String("module", "queue")),
	}, nil
}

// PushStakeRewardEvent publishes the event. Failures are counted and
// returned but callers are expected to keep scanning: publishing is best
// effort by design.
func (qm *QueueManager) PushStakeRewardEvent(ctx context.Context, ev *StakeRewardEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal stake reward event: %w", err)
	}

	err = qm.channel.PublishWithContext(ctx, "", qm.queueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		metrics.RecordQueueSendError()
		qm.logger.Error("failed to publish stake reward event",
			zap.String("txid", ev.TxID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	qm.logger.Info("shutting down queue manager")
	if err := qm.channel.Close(); err != nil {
		qm.logger.Error("failed to close rabbitmq channel", zap.Error(err))
	}
	if err := qm.conn.Close(); err != nil {
		qm.logger.Error("failed to close rabbitmq connection", zap.Error(err))
	}
}
