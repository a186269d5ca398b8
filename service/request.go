package service

import (
	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/kevin-chtw/tw_hkmj/utils"
	"github.com/spf13/cast"
	"google.golang.org/protobuf/types/known/structpb"
)

// fields 请求体，客户端发的是json对象
type fields map[string]any

func newFields(req *structpb.Struct) fields {
	if req == nil {
		return fields{}
	}
	return req.AsMap()
}

func (f fields) str(key string) string {
	return cast.ToString(f[key])
}

func (f fields) num(key string, def int) int {
	v, ok := f[key]
	if !ok || v == nil {
		return def
	}
	return cast.ToInt(v)
}

func (f fields) ints(key string) []int {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	return cast.ToIntSlice(v)
}

// action 解析出牌、吃碰杠等操作
func (f fields) action() game.ActionRequest {
	return game.ActionRequest{
		Type:      f.str("type"),
		TileID:    f.num("tile_id", -1),
		TileIDs:   f.ints("tile_ids"),
		MeldIndex: f.num("meld_index", -1),
	}
}

// reply 把任意结构转成响应体
func reply(v any) (*structpb.Struct, error) {
	if v == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	return utils.ToStruct(v)
}
