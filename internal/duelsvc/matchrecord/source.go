// Package matchrecord reads external game match outcomes used to break
// disputed duels.
package matchrecord

import (
	"context"
	"errors"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
)

var (
	ErrNotFound  = errors.New("match record not found")
	ErrAmbiguous = errors.New("several matches share the latest played_at")
)

// Source resolves a user's game profile and that profile's latest match.
// Both lookups return ErrNotFound when nothing is recorded. LatestMatch
// returns ErrAmbiguous when the newest played_at is shared by more than one
// match.
type Source interface {
	ProfileID(ctx context.Context, userID, gameID string) (string, error)
	LatestMatch(ctx context.Context, profileID string) (*models.MatchRecord, error)
}
