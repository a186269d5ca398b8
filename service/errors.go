package service

import (
	"errors"

	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/kevin-chtw/tw_hkmj/mahjong"
	perrors "github.com/topfreegames/pitaya/v3/pkg/errors"
)

// 返回给客户端的错误码
const (
	CodeIllegalTurn = "HKMJ-001"
	CodeIllegalTile = "HKMJ-002"
	CodeIllegalMeld = "HKMJ-003"
	CodeBadRequest  = "HKMJ-400"
	CodeNotFound    = "HKMJ-404"
)

var errNoSession = errors.New("session not bound")

// toPitayaError 把牌局和房间的错误转成带错误码的pitaya错误
func toPitayaError(err error) error {
	if err == nil {
		return nil
	}
	code := CodeBadRequest
	switch {
	case errors.Is(err, mahjong.ErrIllegalTurn):
		code = CodeIllegalTurn
	case errors.Is(err, mahjong.ErrIllegalTile):
		code = CodeIllegalTile
	case errors.Is(err, mahjong.ErrIllegalMeld):
		code = CodeIllegalMeld
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrNotSeated):
		code = CodeNotFound
	}
	return perrors.NewError(err, code)
}
