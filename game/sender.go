package game

import (
	"sync"

	"github.com/kevin-chtw/tw_hkmj/utils"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
	"google.golang.org/protobuf/types/known/anypb"
)

// 推送消息的种类
const (
	MsgSnapshot = "snapshot"  // 公开牌局状态
	MsgView     = "view"      // 自己的手牌和可做操作
	MsgTable    = "table"     // 座位变化
	MsgRoundEnd = "round_end" // 本局结算
	MsgHisBegin = "hisbegin"
	MsgHisEnd   = "hisend"
)

// Pusher 推送通道，pitaya.Pitaya满足该接口
type Pusher interface {
	SendPushToUsers(route string, v interface{}, uids []string, frontendType string) ([]string, error)
}

// sender 按玩家推送消息并保留本局历史，断线重连时重放
type sender struct {
	pusher       Pusher
	route        string
	frontendType string
	historyMsg   map[string][]*anypb.Any
	historyMutex sync.Mutex
}

func newSender(pusher Pusher, route, frontendType string) *sender {
	return &sender{
		pusher:       pusher,
		route:        route,
		frontendType: frontendType,
		historyMsg:   make(map[string][]*anypb.Any),
	}
}

// send 编码后推送，keep为true时记入历史
func (s *sender) send(p *Player, typ string, payload any, keep bool) {
	if p == nil || p.bot {
		return
	}
	msg, err := utils.Envelope(typ, payload)
	if err != nil {
		logger.Log.Errorf("encode %s for %s: %v", typ, p.uid, err)
		return
	}
	if keep {
		s.addHisMsg(p.uid, msg)
	}
	s.sendMsg(msg, p)
}

func (s *sender) sendMsg(msg *anypb.Any, p *Player) {
	if !p.online || s.pusher == nil {
		return
	}
	if _, err := s.pusher.SendPushToUsers(s.route, msg, []string{p.uid}, s.frontendType); err != nil {
		logger.Log.Errorf("player %v failed: %v", p.uid, err)
	}
}

func (s *sender) addHisMsg(uid string, msg *anypb.Any) {
	s.historyMutex.Lock()
	defer s.historyMutex.Unlock()
	s.historyMsg[uid] = append(s.historyMsg[uid], msg)
}

// resetHistory 新的一局开始
func (s *sender) resetHistory() {
	s.historyMutex.Lock()
	defer s.historyMutex.Unlock()
	s.historyMsg = make(map[string][]*anypb.Any)
}

// sendHisMsges 以hisbegin/hisend包住本局历史
func (s *sender) sendHisMsges(p *Player) {
	s.historyMutex.Lock()
	defer s.historyMutex.Unlock()

	history := s.historyMsg[p.uid]
	if len(history) == 0 {
		return
	}
	s.send(p, MsgHisBegin, struct{}{}, false)
	for _, msg := range history {
		s.sendMsg(msg, p)
	}
	s.send(p, MsgHisEnd, map[string]int{"count": len(history)}, false)
}
