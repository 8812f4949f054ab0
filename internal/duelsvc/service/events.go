package service

import (
	"github.com/avvvet/duel-services/internal/comm"
	"github.com/avvvet/duel-services/internal/duelsvc/models"
)

// EventPublisher receives duel events after their transition committed.
// Implementations must not block the caller on delivery.
type EventPublisher interface {
	PublishDuelEvent(ev comm.DuelEvent)
}

type nopPublisher struct{}

func (nopPublisher) PublishDuelEvent(comm.DuelEvent) {}

func (s *DuelService) emit(eventType string, d *models.Duel, actor string) {
	ev := comm.DuelEvent{
		Type:      eventType,
		DuelID:    d.ID,
		Status:    string(d.Status),
		Actor:     actor,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	if d.WinnerUsername != nil {
		ev.Winner = *d.WinnerUsername
	}
	s.events.PublishDuelEvent(ev)
}
