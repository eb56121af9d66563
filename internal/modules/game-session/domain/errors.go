package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrStatusNotFound  = errors.New("player status not found")
	ErrNotAMember      = errors.New("player is not a member of this game")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCodeInUse       = errors.New("game code already in use")
	ErrInvalidStatus   = errors.New("invalid status")
)
