package ws

import (
	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
)

// Relay forwards a billing event to the connections of the teacher it addresses.
// It matches the pubsub.Subscriber handler signature. Events for teachers without
// an open connection are dropped.
func (h *Hub) Relay(event *pubsub.Event) {
	if event.TeacherID == 0 || !h.IsOnline(event.TeacherID) {
		return
	}
	msg := &Message{Type: event.Type, Data: event}
	if err := h.SendToTeacher(event.TeacherID, msg); err != nil {
		h.log.Warn("failed to relay event", zap.String("type", event.Type), zap.Error(err))
	}
}
