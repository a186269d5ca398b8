package service

import (
	"context"
	"runtime/debug"

	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/kevin-chtw/tw_hkmj/storage"
	pitaya "github.com/topfreegames/pitaya/v3/pkg"
	"github.com/topfreegames/pitaya/v3/pkg/component"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
	"google.golang.org/protobuf/types/known/structpb"
)

// Binder 记录玩家坐在哪个房间，集群里用etcd实现
type Binder interface {
	Put(uid, room string, seat int) error
	Remove(uid string) error
	Get(uid string) (*storage.Binding, error)
}

// Room 开房、进房、加机器人、开局
type Room struct {
	component.Base
	app     pitaya.Pitaya
	tables  *game.TableManager
	binder  Binder
	session func(ctx context.Context) string
}

// NewRoom binder可以为nil
func NewRoom(app pitaya.Pitaya, tables *game.TableManager, binder Binder) *Room {
	return &Room{
		app:     app,
		tables:  tables,
		binder:  binder,
		session: sessionUID(app),
	}
}

func sessionUID(app pitaya.Pitaya) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		s := app.GetSessionFromCtx(ctx)
		if s == nil {
			return ""
		}
		return s.UID()
	}
}

func recoverHandler(route string) {
	if r := recover(); r != nil {
		logger.Log.Errorf("%s panic recovered %s\n %s", route, r, string(debug.Stack()))
	}
}

func (r *Room) uid(ctx context.Context) (string, error) {
	uid := r.session(ctx)
	if uid == "" {
		return "", toPitayaError(errNoSession)
	}
	return uid, nil
}

func (r *Room) bind(uid string, table *game.Table, seat int) {
	if r.binder == nil {
		return
	}
	if err := r.binder.Put(uid, table.Code(), seat); err != nil {
		logger.Log.Errorf("bind %s to %s failed: %v", uid, table.Code(), err)
	}
}

func (r *Room) unbind(uid string) {
	if r.binder == nil {
		return
	}
	if err := r.binder.Remove(uid); err != nil {
		logger.Log.Errorf("unbind %s failed: %v", uid, err)
	}
}

func seated(table *game.Table, seat int) (*structpb.Struct, error) {
	return reply(map[string]any{"seat": seat, "table": table.Info()})
}

// Create 开房，请求带name
func (r *Room) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.create")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	table, seat, err := r.tables.Create(uid, newFields(req).str("name"))
	if err != nil {
		return nil, toPitayaError(err)
	}
	r.bind(uid, table, seat)
	return seated(table, seat)
}

// Join 按房间号进房
func (r *Room) Join(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.join")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	f := newFields(req)
	table, seat, err := r.tables.Join(f.str("code"), uid, f.str("name"))
	if err != nil {
		return nil, toPitayaError(err)
	}
	r.bind(uid, table, seat)
	return seated(table, seat)
}

func (r *Room) Leave(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.leave")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	table, err := r.tables.Leave(uid)
	if err != nil {
		return nil, toPitayaError(err)
	}
	r.unbind(uid)
	return reply(map[string]any{"code": table.Code()})
}

func (r *Room) located(uid string) (*game.Table, error) {
	table := r.tables.Locate(uid)
	if table == nil {
		return nil, toPitayaError(game.ErrNotSeated)
	}
	return table, nil
}

// AddBot count缺省为1，fill为true时坐满
func (r *Room) AddBot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.addbot")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	table, err := r.located(uid)
	if err != nil {
		return nil, err
	}
	f := newFields(req)
	added := 0
	if f.str("fill") == "true" {
		added, err = table.FillBots(uid)
	} else {
		for range max(f.num("count", 1), 1) {
			if _, err = table.AddBot(uid); err != nil {
				break
			}
			added++
		}
	}
	if err != nil && added == 0 {
		return nil, toPitayaError(err)
	}
	return reply(map[string]any{"added": added, "table": table.Info()})
}

// Start 房主开局
func (r *Room) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.start")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	table, err := r.located(uid)
	if err != nil {
		return nil, err
	}
	if err := table.Start(uid); err != nil {
		return nil, toPitayaError(err)
	}
	return reply(table.Info())
}

func (r *Room) NextRound(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.nextround")
	uid, err := r.uid(ctx)
	if err != nil {
		return nil, err
	}
	table, err := r.located(uid)
	if err != nil {
		return nil, err
	}
	if err := table.NextRound(uid); err != nil {
		return nil, toPitayaError(err)
	}
	return reply(table.Info())
}

// List 房间列表
func (r *Room) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	defer recoverHandler("room.list")
	return reply(map[string]any{"rooms": r.tables.List()})
}
