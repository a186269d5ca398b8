package game

import "errors"

const (
	codeLength   = 5
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomLimit         = errors.New("too many rooms")
	ErrTableFull         = errors.New("table is full")
	ErrNotHost           = errors.New("only the host can do this")
	ErrNotSeated         = errors.New("player not on table")
	ErrAlreadySeated     = errors.New("player already on another table")
	ErrNotEnoughPlayers  = errors.New("need 4 players to start")
	ErrGameStarted       = errors.New("game already started")
	ErrGameNotStarted    = errors.New("game not started")
	ErrUnknownActionType = errors.New("unknown action type")
)
