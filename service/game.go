package service

import (
	"context"

	"github.com/kevin-chtw/tw_hkmj/game"
	pitaya "github.com/topfreegames/pitaya/v3/pkg"
	"github.com/topfreegames/pitaya/v3/pkg/component"
	perrors "github.com/topfreegames/pitaya/v3/pkg/errors"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
	"google.golang.org/protobuf/types/known/structpb"
)

// Game 牌局内的操作，状态通过推送下发
type Game struct {
	component.Base
	tables  *game.TableManager
	binder   Binder
	serverID string
	session  func(ctx context.Context) string
}

// NewGame binder可以为nil
func NewGame(app pitaya.Pitaya, tables *game.TableManager, binder Binder) *Game {
	g := &Game{
		tables:  tables,
		binder:  binder,
		session: sessionUID(app),
	}
	if server := app.GetServer(); server != nil {
		g.serverID = server.ID
	}
	return g
}

func (g *Game) table(ctx context.Context) (string, *game.Table, error) {
	uid := g.session(ctx)
	if uid == "" {
		return "", nil, toPitayaError(errNoSession)
	}
	table := g.tables.Locate(uid)
	if table == nil {
		return uid, nil, toPitayaError(game.ErrNotSeated)
	}
	return uid, table, nil
}

// Action 出牌、摸牌、吃碰杠和，只回操作结果的概要，不含他人手牌
func (g *Game) Action(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("game.action")
	uid, table, err := g.table(ctx)
	if err != nil {
		return nil, err
	}
	action := newFields(req).action()
	result, err := table.Action(uid, action)
	if err != nil {
		return nil, toPitayaError(err)
	}
	logger.Log.Debugf("table %s: %s %s -> %s", table.Code(), uid, action.Type, result.Kind)
	return reply(map[string]any{
		"kind":      result.Kind.String(),
		"seat":      result.Seat,
		"next_seat": result.NextSeat,
		"finished":  result.Finished(),
	})
}

// Reconnect 断线重连，重放本局消息；桌子在别的服务器上时返回该服务器id
func (g *Game) Reconnect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("game.reconnect")
	uid, table, err := g.table(ctx)
	if err != nil {
		if uid == "" {
			return nil, err
		}
		return nil, g.rebind(uid, err)
	}
	seat, err := table.Reconnect(uid)
	if err != nil {
		return nil, toPitayaError(err)
	}
	return seated(table, seat)
}

// Offline 前端断开时调用
func (g *Game) Offline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("game.offline")
	uid, table, err := g.table(ctx)
	if err != nil {
		return nil, err
	}
	table.SetOnline(uid, false)
	return reply(nil)
}

// rebind 本服没有这张桌子时查绑定，过期的绑定直接删掉
func (g *Game) rebind(uid string, notFound error) error {
	if g.binder == nil {
		return notFound
	}
	binding, err := g.binder.Get(uid)
	if err != nil {
		return notFound
	}
	if binding.ServerId == g.serverID {
		if err := g.binder.Remove(uid); err != nil {
			logger.Log.Errorf("remove stale binding of %s: %v", uid, err)
		}
		return notFound
	}
	return perrors.NewError(game.ErrNotSeated, CodeNotFound, map[string]string{
		"server_id": binding.ServerId,
		"room":      binding.Room,
	})
}
