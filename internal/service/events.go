package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
)

// EventPublisher fans billing events out to live listeners. A nil publisher disables fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, event *pubsub.Event) error
}

func auditEvent(sub *model.Subscription, typ, from, to string, details map[string]interface{}) *model.SubscriptionEvent {
	event := &model.SubscriptionEvent{
		TeacherID:      sub.TeacherID,
		SubscriptionID: sub.ID,
		Type:           typ,
		FromStatus:     from,
		ToStatus:       to,
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			event.Details = datatypes.JSON(raw)
		}
	}
	return event
}

// publish never fails the caller; live delivery is best effort.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, event *pubsub.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Warn("failed to publish billing event",
			zap.String("type", event.Type),
			zap.Int64("teacher_id", event.TeacherID),
			zap.Error(err))
	}
}
