package matchrecord

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource_LatestMatchWins(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.AddProfile(models.GameProfile{ID: "p1", UserID: "u1", GameID: "g1"})

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src.AddMatch(models.MatchRecord{ID: "m2", GameProfileID: "p1", Won: false, PlayedAt: base.Add(time.Hour)})
	src.AddMatch(models.MatchRecord{ID: "m1", GameProfileID: "p1", Won: true, PlayedAt: base})

	id, err := src.ProfileID(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	m, err := src.LatestMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "m2", m.ID)
	assert.False(t, m.Won)
}

func TestMemorySource_Missing(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()

	_, err := src.ProfileID(ctx, "u1", "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.LatestMatch(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySource_TiedLatestIsAmbiguous(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.AddProfile(models.GameProfile{ID: "p1", UserID: "u1", GameID: "g1"})

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src.AddMatch(models.MatchRecord{ID: "m0", GameProfileID: "p1", Won: false, PlayedAt: at.Add(-time.Hour)})
	src.AddMatch(models.MatchRecord{ID: "m1", GameProfileID: "p1", Won: true, PlayedAt: at})
	src.AddMatch(models.MatchRecord{ID: "m2", GameProfileID: "p1", Won: false, PlayedAt: at})

	_, err := src.LatestMatch(ctx, "p1")
	assert.ErrorIs(t, err, ErrAmbiguous)

	src.AddMatch(models.MatchRecord{ID: "m3", GameProfileID: "p1", Won: true, PlayedAt: at.Add(time.Minute)})
	m, err := src.LatestMatch(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "m3", m.ID)
}
