package orderevents

import (
	"context"
	"encoding/json"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/vendaria/vendaria-backend/pkg/logger"
)

// Service pulls order events off Pub/Sub and feeds them to the consumer.
type Service struct {
	subscription *gcppubsub.Subscriber
	consumer     *Consumer
	logg         *logger.Logger
}

// NewService builds the receive loop for the order events subscription.
func NewService(subscription *gcppubsub.Subscriber, consumer *Consumer, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("order events subscription is required")
	}
	if consumer == nil {
		return nil, errors.New("order events consumer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		consumer:     consumer,
		logg:         logg,
	}, nil
}

// Run consumes messages until the context is canceled. Unusable
// messages are acked so they stop redelivering; transient failures are
// nacked for retry.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		var envelope Envelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			logCtx := s.logg.WithFields(innerCtx, map[string]any{
				"message_id": msg.ID,
				"error":      err.Error(),
			})
			s.logg.Warn(logCtx, "invalid order event envelope")
			msg.Ack()
			return
		}

		err := s.consumer.Process(innerCtx, envelope)
		if err != nil && !errors.Is(err, ErrDrop) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
