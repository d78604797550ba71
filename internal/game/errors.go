package game

import "errors"

// Precondition violations reported to callers. None of these leave any
// partial effect; the enclosing transaction is rolled back first.
var (
	ErrInvalidStake        = errors.New("invalid stake amount")
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchNotJoinable    = errors.New("match is not joinable")
	ErrMatchNotPlaying     = errors.New("match is not in play")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidPosition     = errors.New("invalid board position")
	ErrPositionTaken       = errors.New("position already taken")
	ErrNotCreator          = errors.New("only the creator may cancel")
	ErrMatchNotCancellable = errors.New("match can no longer be cancelled")
	ErrNotParticipant      = errors.New("user is not a participant")
	ErrAccountNotActive    = errors.New("account is not active")
)
