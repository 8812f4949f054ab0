package apperr

// Kind groups error codes into the outcome classes callers branch on.
type Kind string

const (
	KindValidation              Kind = "VALIDATION"
	KindNotFound                Kind = "NOT_FOUND"
	KindInvalidTransition       Kind = "INVALID_TRANSITION"
	KindInsufficientFunds       Kind = "INSUFFICIENT_FUNDS"
	KindInsufficientLockedFunds Kind = "INSUFFICIENT_LOCKED_FUNDS"
	KindForbidden               Kind = "FORBIDDEN"
	KindInternal                Kind = "INTERNAL"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeUsernameTaken     Code = "USERNAME_TAKEN"
	CodeWalletExists      Code = "WALLET_EXISTS"
	CodeInvalidClaim      Code = "INVALID_CLAIM"
	CodeCannotJoinOwnDuel Code = "CANNOT_JOIN_OWN_DUEL"

	// Lookups
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeDuelNotFound    Code = "DUEL_NOT_FOUND"
	CodeWalletNotFound  Code = "WALLET_NOT_FOUND"
	CodePlayerNotRanked Code = "PLAYER_NOT_RANKED"

	// Duel state machine
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeDuelNotOpen       Code = "DUEL_NOT_OPEN"
	CodeDuelExpired       Code = "DUEL_EXPIRED"
	CodeAlreadySubmitted  Code = "ALREADY_SUBMITTED"
	CodeNotParticipant    Code = "NOT_PARTICIPANT"

	// Ledger
	CodeInsufficientFunds       Code = "INSUFFICIENT_FUNDS"
	CodeInsufficientLockedFunds Code = "INSUFFICIENT_LOCKED_FUNDS"

	// Permissions
	CodeNotCreator Code = "NOT_CREATOR"
)

var codeKinds = map[Code]Kind{
	CodeInvalidAmount:     KindValidation,
	CodeInvalidArgument:   KindValidation,
	CodeUsernameTaken:     KindValidation,
	CodeWalletExists:      KindValidation,
	CodeInvalidClaim:      KindValidation,
	CodeUserNotFound:      KindNotFound,
	CodeDuelNotFound:      KindNotFound,
	CodeWalletNotFound:    KindNotFound,
	CodePlayerNotRanked:   KindNotFound,
	CodeInvalidTransition: KindInvalidTransition,
	CodeDuelNotOpen:       KindInvalidTransition,
	CodeDuelExpired:       KindInvalidTransition,
	CodeAlreadySubmitted:  KindInvalidTransition,
	CodeNotParticipant:    KindInvalidTransition,
	CodeCannotJoinOwnDuel: KindForbidden,
	CodeNotCreator:        KindForbidden,

	CodeInsufficientFunds:       KindInsufficientFunds,
	CodeInsufficientLockedFunds: KindInsufficientLockedFunds,
}

// Kind returns the outcome class for the code.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindInternal
}
