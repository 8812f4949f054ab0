package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Newf(CodeDuelNotOpen, "duel %s is %s", "d1", "ACTIVE")
	assert.True(t, errors.Is(err, ErrDuelNotOpen))
	assert.False(t, errors.Is(err, ErrAlreadySubmitted))

	wrapped := fmt.Errorf("join: %w", err)
	assert.True(t, errors.Is(wrapped, ErrDuelNotOpen))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidTransition, KindOf(ErrAlreadySubmitted))
	assert.Equal(t, KindInvalidTransition, KindOf(ErrNotParticipant))
	assert.Equal(t, KindInsufficientFunds, KindOf(fmt.Errorf("lock: %w", ErrInsufficientFunds)))
	assert.Equal(t, KindInsufficientLockedFunds, KindOf(ErrInsufficientLockedFunds))
	assert.Equal(t, KindForbidden, KindOf(ErrNotCreator))
	assert.Equal(t, KindNotFound, KindOf(ErrWalletNotFound))
	assert.Equal(t, KindValidation, KindOf(Validation("bad %s", "input")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInvalidArgument, "create duel", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "create duel: connection reset", err.Error())
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestInvalidTransition_NamesStateAndAction(t *testing.T) {
	err := InvalidTransition("SETTLED", "cancel")
	assert.Equal(t, "cannot cancel duel in SETTLED state", err.Error())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
