package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/userdesk/internal/domain"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
	log *zap.Logger
}

func NewHubNotifier(hub *Hub, log *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, log: log}
}

func (n *HubNotifier) NotifyUserCreated(user *domain.User) {
	n.publish(EventTypeUserCreated, UserPayload{User: *user})
}

func (n *HubNotifier) NotifyUserUpdated(user *domain.User) {
	n.publish(EventTypeUserUpdated, UserPayload{User: *user})
}

func (n *HubNotifier) NotifyUserDeleted(id uuid.UUID) {
	n.publish(EventTypeUserDeleted, UserDeletedPayload{ID: id})
}

func (n *HubNotifier) publish(eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		n.log.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.Broadcast(evt)
}
