package service

import (
	"testing"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// play settles a duel of stake between winner and loser by consensus.
func (f *fixture) play(t *testing.T, winner, loser string, stake int64) {
	t.Helper()
	d := f.create(t, winner, stake)
	_, err := f.duels.JoinDuel(f.ctx, d.ID, loser)
	require.NoError(t, err)
	_, err = f.duels.SubmitResult(f.ctx, d.ID, winner, winner)
	require.NoError(t, err)
	res, err := f.duels.SubmitResult(f.ctx, d.ID, loser, winner)
	require.NoError(t, err)
	require.True(t, res.Resolved)
}

func TestLeaderboardOrdering(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"dave", "carol", "bob", "alice"} {
		f.player(t, name, 100)
	}

	f.play(t, "carol", "dave", 5)
	f.play(t, "bob", "dave", 20)
	f.play(t, "carol", "alice", 5)

	page, err := f.board.GetLeaderboard(f.ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 4)

	var names []string
	for _, e := range page {
		names = append(names, e.Username)
	}
	// carol 2 wins; bob 1 win/20 won; alice and dave tie on 0/0 and sort by name
	assert.Equal(t, []string{"carol", "bob", "alice", "dave"}, names)
	assert.Equal(t, 1, page[0].Rank)
	assert.Equal(t, float64(100), page[0].WinPercentage)
	assert.Equal(t, float64(0), page[3].WinPercentage)

	second, err := f.board.GetLeaderboard(f.ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "alice", second[0].Username)
	assert.Equal(t, 3, second[0].Rank)
	assert.Equal(t, 4, second[1].Rank)

	standing, err := f.board.GetPlayerStanding(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, standing.Rank)

	_, err = f.board.GetPlayerStanding(f.ctx, "zed")
	assert.ErrorIs(t, err, apperr.ErrPlayerNotRanked)
}

func TestLeaderboardRefreshKeepsPreviousRank(t *testing.T) {
	f := newFixture(t)
	f.player(t, "alice", 100)
	f.player(t, "bob", 100)

	f.play(t, "alice", "bob", 5)
	n, err := f.board.RefreshRanks(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bob, err := f.board.GetPlayerStanding(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, bob.CurrentRank)
	assert.Equal(t, 0, bob.PreviousRank)

	f.play(t, "bob", "alice", 5)
	f.play(t, "bob", "alice", 5)
	_, err = f.board.RefreshRanks(f.ctx)
	require.NoError(t, err)

	bob, err = f.board.GetPlayerStanding(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.CurrentRank)
	assert.Equal(t, 2, bob.PreviousRank)

	alice, err := f.board.GetPlayerStanding(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, alice.CurrentRank)
	assert.Equal(t, 1, alice.PreviousRank)
}

func TestLeaderboardValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.board.GetLeaderboard(f.ctx, 0, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = f.board.GetLeaderboard(f.ctx, 101, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = f.board.GetLeaderboard(f.ctx, 10, -1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	page, err := f.board.GetLeaderboard(f.ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}
