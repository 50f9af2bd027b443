package testutil

import (
	"context"
	"sync"

	"bolsafeucn/internal/services"

	"gorm.io/gorm"
)

// RecordingNotifier запоминает события вместо доставки
type RecordingNotifier struct {
	mu              sync.Mutex
	Publications    []services.PublicationStatusEvent
	Applications    []services.ApplicationStatusEvent
	NewApplications []services.NewApplicationEvent
}

func (n *RecordingNotifier) NotifyPublicationStatus(_ context.Context, _ *gorm.DB, event services.PublicationStatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Publications = append(n.Publications, event)
}

func (n *RecordingNotifier) NotifyApplicationStatus(_ context.Context, _ *gorm.DB, event services.ApplicationStatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Applications = append(n.Applications, event)
}

func (n *RecordingNotifier) NotifyNewApplication(_ context.Context, _ *gorm.DB, event services.NewApplicationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NewApplications = append(n.NewApplications, event)
}

// LastPublicationEvent - последнее событие публикации (или nil)
func (n *RecordingNotifier) LastPublicationEvent() *services.PublicationStatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Publications) == 0 {
		return nil
	}
	e := n.Publications[len(n.Publications)-1]
	return &e
}
