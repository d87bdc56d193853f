package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/voicedesk/escalation-service/internal/config"
	"github.com/voicedesk/escalation-service/internal/events"
	"github.com/voicedesk/escalation-service/internal/persistence"
)

// NotificationService is the delivery port for escalation events: supervisor
// alerts on new escalations and answer relay back to the waiting caller. The
// core only makes state observable; actual delivery is a downstream concern,
// so every publish here is best-effort and never fails the operation.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEscalationCreated, n.handleEscalationCreated)
	n.dispatcher.Subscribe(events.EventRequestResolved, n.handleRequestResolved)
	n.dispatcher.Subscribe(events.EventAnswerLearned, n.handleAnswerLearned)
	n.dispatcher.Subscribe(events.EventCustomerRegistered, n.handleCustomerRegistered)
}

func (n *NotificationService) handleEscalationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("supervisor notification: new help request needs attention",
		zap.Int64("request_id", event.RequestID),
		zap.Any("payload", event.Payload),
	)
	n.publishToChannel(ctx, n.cfg.EscalationChannel, event)
	return nil
}

func (n *NotificationService) handleRequestResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("relaying answer to customer session",
		zap.Int64("request_id", event.RequestID),
		zap.Any("payload", event.Payload),
	)
	n.publishToChannel(ctx, n.cfg.AnswerChannel, event)
	return nil
}

func (n *NotificationService) handleAnswerLearned(ctx context.Context, event events.Event) error {
	n.logger.Info("knowledge base entry added",
		zap.Int64("request_id", event.RequestID),
		zap.Any("payload", event.Payload),
	)
	return nil
}

func (n *NotificationService) handleCustomerRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("new customer registered", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) publishToChannel(ctx context.Context, channel string, event events.Event) {
	if n.redis == nil || strings.TrimSpace(channel) == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("failed to encode notification", zap.Error(err))
		return
	}
	if err := n.redis.Publish(ctx, channel, payload); err != nil {
		n.logger.Warn("failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}
