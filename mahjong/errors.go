package mahjong

import "errors"

// 引擎拒绝的操作都不会修改牌局状态
var (
	ErrIllegalTurn = errors.New("illegal turn")
	ErrIllegalTile = errors.New("illegal tile reference")
	ErrIllegalMeld = errors.New("illegal meld")
)
