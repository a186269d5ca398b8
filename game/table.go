package game

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kevin-chtw/tw_hkmj/bot"
	"github.com/kevin-chtw/tw_hkmj/mahjong"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

// ActionRequest 玩家的操作
type ActionRequest struct {
	Type      string `json:"type"`
	TileID    int    `json:"tile_id"`
	TileIDs   []int  `json:"tile_ids,omitempty"`
	MeldIndex int    `json:"meld_index"`
}

// 操作类型
const (
	ActDraw          = "draw"
	ActDiscard       = "discard"
	ActWin           = "win"
	ActPass          = "pass"
	ActChow          = "chow"
	ActPong          = "pong"
	ActKong          = "kong"
	ActConcealedKong = "concealed_kong"
	ActAddKong       = "add_kong"
)

// TableInfo 房间列表的一行
type TableInfo struct {
	ID      string       `json:"id"`
	Code    string       `json:"code"`
	Host    string       `json:"host"`
	Phase   string       `json:"phase"`
	Round   int          `json:"round"`
	Players []PlayerInfo `json:"players"`
}

// Table 一个房间，所有对牌局的调用都在gameMutex下进行
type Table struct {
	id        string
	code      string
	host      string
	createdAt time.Time
	players   [mahjong.SeatCount]*Player
	brains    [mahjong.SeatCount]*bot.Brain
	gameMutex sync.Mutex // 保护game的对象锁
	game      *mahjong.Game
	resolved  bool   // 上一个操作结束了一轮响应
	endedGen  uint64 // 已推送结算的generation
	conf      *Config
	cache     *bot.WaitCache
	scheduler *BotScheduler
	sender    *sender
	shuffler  mahjong.Shuffler
}

// NewTable 创建新的游戏桌实例
func NewTable(code string, host string, m *TableManager) *Table {
	t := &Table{
		id:        uuid.NewString(),
		code:      code,
		host:      host,
		createdAt: time.Now(),
		conf:      m.conf,
		cache:     m.cache,
		scheduler: m.scheduler,
		sender:    newSender(m.pusher, m.route, m.frontendType),
		shuffler:  m.shuffler,
	}
	if t.shuffler == nil {
		t.shuffler = t.manualShuffler()
	}
	return t
}

// manualShuffler 配牌文件不存在时用随机洗牌
func (t *Table) manualShuffler() mahjong.Shuffler {
	random := mahjong.NewRandShuffler(time.Now().UnixNano())
	manual := t.conf.Get().Manual
	if manual.Dir == "" {
		return random
	}
	path := filepath.Join(manual.Dir, manual.Name+".yaml")
	m, err := mahjong.NewManualShuffler(path, random)
	if err != nil {
		logger.Log.Debugf("no manual deal %s: %v", path, err)
		return random
	}
	if m.Enabled() {
		logger.Log.Infof("table %s uses manual deal %s", t.code, path)
	}
	return m
}

func (t *Table) ID() string {
	return t.id
}

func (t *Table) Code() string {
	return t.code
}

func (t *Table) seatOf(uid string) int {
	for seat, p := range t.players {
		if p != nil && p.uid == uid {
			return seat
		}
	}
	return mahjong.SeatNull
}

// SeatOf 玩家的座位，不在桌上返回SeatNull
func (t *Table) SeatOf(uid string) int {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	return t.seatOf(uid)
}

func (t *Table) started() bool {
	return t.game != nil && t.game.Phase() != mahjong.PhaseWaiting
}

func (t *Table) freeSeat() int {
	for seat, p := range t.players {
		if p == nil {
			return seat
		}
	}
	return mahjong.SeatNull
}

// empty 开局前没有真人玩家
func (t *Table) empty() bool {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if t.started() {
		return false
	}
	return !slices.ContainsFunc(t.players[:], func(p *Player) bool {
		return p != nil && !p.bot
	})
}

// Join 坐到第一个空位；已在桌上时返回原座位
func (t *Table) Join(uid, name string) (int, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if seat := t.seatOf(uid); seat != mahjong.SeatNull {
		return seat, nil
	}
	if t.started() {
		return mahjong.SeatNull, ErrGameStarted
	}
	seat := t.freeSeat()
	if seat == mahjong.SeatNull {
		return mahjong.SeatNull, ErrTableFull
	}
	t.players[seat] = NewPlayer(uid, name, seat, false)
	logger.Log.Infof("table %s: %s joined at seat %d", t.code, uid, seat)
	t.broadcastTable()
	return seat, nil
}

// Leave 开局前让出座位，开局后转为托管
func (t *Table) Leave(uid string) error {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	seat := t.seatOf(uid)
	if seat == mahjong.SeatNull {
		return ErrNotSeated
	}
	p := t.players[seat]
	if t.started() {
		p.trustee = true
		p.online = false
		logger.Log.Infof("table %s: %s left, seat %d on trustee", t.code, uid, seat)
		t.broadcastTable()
		t.drive()
		return nil
	}

	t.players[seat] = nil
	t.brains[seat] = nil
	if uid == t.host {
		t.host = ""
		for _, other := range t.players {
			if other != nil && !other.bot {
				t.host = other.uid
				break
			}
		}
	}
	logger.Log.Infof("table %s: %s left seat %d, host %q", t.code, uid, seat, t.host)
	t.broadcastTable()
	return nil
}

// AddBot 房主加一个机器人
func (t *Table) AddBot(uid string) (int, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if uid != t.host {
		return mahjong.SeatNull, ErrNotHost
	}
	seat, err := t.addBot()
	if err != nil {
		return seat, err
	}
	t.broadcastTable()
	return seat, nil
}

// FillBots 房主用机器人坐满空位
func (t *Table) FillBots(uid string) (int, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if uid != t.host {
		return 0, ErrNotHost
	}
	added := 0
	for t.freeSeat() != mahjong.SeatNull {
		if _, err := t.addBot(); err != nil {
			return added, err
		}
		added++
	}
	t.broadcastTable()
	return added, nil
}

func (t *Table) addBot() (int, error) {
	if t.started() {
		return mahjong.SeatNull, ErrGameStarted
	}
	seat := t.freeSeat()
	if seat == mahjong.SeatNull {
		return seat, ErrTableFull
	}
	id := uuid.New()
	t.players[seat] = NewPlayer("bot-"+id.String(), fmt.Sprintf("Bot %d", seat+1), seat, true)
	logger.Log.Infof("table %s: bot added at seat %d", t.code, seat)
	return seat, nil
}

func (t *Table) brain(seat int) *bot.Brain {
	if t.brains[seat] == nil {
		t.brains[seat] = bot.NewBrain(t.conf.BotLevel(), t.cache, time.Now().UnixNano()+int64(seat))
	}
	return t.brains[seat]
}

// Start 房主开局，需要坐满
func (t *Table) Start(uid string) error {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if uid != t.host {
		return ErrNotHost
	}
	if t.started() {
		return ErrGameStarted
	}
	if t.freeSeat() != mahjong.SeatNull {
		return ErrNotEnoughPlayers
	}
	g := mahjong.NewGame(mahjong.WithShuffler(t.shuffler))
	if _, err := g.Initialize(); err != nil {
		return err
	}
	t.game = g
	t.resolved = false
	t.sender.resetHistory()
	logger.Log.Infof("table %s: game started, banker %d", t.code, g.Banker())
	t.afterAction()
	return nil
}

// NextRound 房主开始下一局
func (t *Table) NextRound(uid string) error {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if uid != t.host {
		return ErrNotHost
	}
	if t.game == nil {
		return ErrGameNotStarted
	}
	if _, err := t.game.NextRound(); err != nil {
		return err
	}
	t.resolved = false
	t.sender.resetHistory()
	logger.Log.Infof("table %s: round %d started, banker %d", t.code, t.game.Round(), t.game.Banker())
	t.afterAction()
	return nil
}

// Action 玩家的操作，被拒绝时牌局不变
func (t *Table) Action(uid string, req ActionRequest) (*mahjong.Result, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	seat := t.seatOf(uid)
	if seat == mahjong.SeatNull {
		return nil, ErrNotSeated
	}
	if t.game == nil {
		return nil, ErrGameNotStarted
	}
	result, err := t.apply(seat, req)
	if err != nil {
		logger.Log.Warnf("table %s: seat %d %s rejected: %v", t.code, seat, req.Type, err)
		return nil, err
	}
	t.afterAction()
	return result, nil
}

// apply 把操作交给牌局
func (t *Table) apply(seat int, req ActionRequest) (*mahjong.Result, error) {
	g := t.game
	before := g.Phase()
	data := mahjong.ClaimData{TileIDs: req.TileIDs}
	var result *mahjong.Result
	var err error
	switch req.Type {
	case ActDraw:
		result, err = g.Draw(seat)
	case ActDiscard:
		result, err = g.Discard(seat, req.TileID)
	case ActWin:
		result, err = g.Claim(seat, mahjong.ClaimWin, data)
	case ActPass:
		result, err = g.Pass(seat)
	case ActChow:
		result, err = g.Claim(seat, mahjong.ClaimChow, data)
	case ActPong:
		result, err = g.Claim(seat, mahjong.ClaimPong, data)
	case ActKong:
		switch {
		case before == mahjong.PhaseClaim:
			result, err = g.Claim(seat, mahjong.ClaimKong, data)
		case len(req.TileIDs) == 4:
			result, err = g.ConcealedKong(seat, req.TileIDs)
		default:
			result, err = g.AddKong(seat, req.TileID, req.MeldIndex)
		}
	case ActConcealedKong:
		result, err = g.ConcealedKong(seat, req.TileIDs)
	case ActAddKong:
		result, err = g.AddKong(seat, req.TileID, req.MeldIndex)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, req.Type)
	}
	if err != nil {
		return nil, err
	}
	t.resolved = before == mahjong.PhaseClaim && result.Kind == mahjong.ResultTurnAdvanced
	logger.Log.Debugf("table %s: seat %d %s -> %s", t.code, seat, req.Type, result.Kind)
	return result, nil
}

// afterAction 推送状态并推进牌局
func (t *Table) afterAction() {
	t.drive()
	t.broadcastState()
}

// drive 人类玩家轮到时自动摸牌，机器人排定延时操作。
// 没有可响应选项的座位不在Pending里，由牌局在结算时记为过
func (t *Table) drive() {
	for t.game != nil {
		g := t.game
		switch g.Phase() {
		case mahjong.PhasePlaying:
			seat := g.CurrentSeat()
			p := t.players[seat]
			if g.NeedDiscard(seat) {
				if p.IsBot() {
					t.scheduleBot(seat, t.conf.Delays().Draw)
				}
				return
			}
			if p.IsBot() {
				delay := t.conf.Delays().Turn
				if t.resolved {
					delay = t.conf.Delays().Resolve
				}
				t.scheduleBot(seat, delay)
				return
			}
			if _, err := g.Draw(seat); err != nil {
				logger.Log.Errorf("table %s: auto draw for seat %d: %v", t.code, seat, err)
				return
			}
			t.resolved = false
		case mahjong.PhaseClaim:
			for _, seat := range g.Ledger().Pending() {
				if t.players[seat].IsBot() {
					t.scheduleBot(seat, t.conf.Delays().Claim)
				}
			}
			return
		case mahjong.PhaseFinished:
			t.scheduler.CancelTable(t.id)
			if t.endedGen != g.Generation() {
				t.endedGen = g.Generation()
				t.roundEnd()
			}
			return
		default:
			return
		}
	}
}

func (t *Table) scheduleBot(seat int, delay time.Duration) {
	t.scheduler.Schedule(t.id, seat, t.game.Generation(), delay, t.onBotTimer)
}

// onBotTimer 定时器到期后重新校验，过期的直接丢弃
func (t *Table) onBotTimer(seat int, generation uint64) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if t.game == nil || t.game.Generation() != generation {
		logger.Log.Debugf("table %s: stale bot task seat %d gen %d", t.code, seat, generation)
		return
	}
	if p := t.players[seat]; p == nil || !p.IsBot() {
		logger.Log.Debugf("table %s: seat %d no longer a bot", t.code, seat)
		return
	}

	req, ok := t.botRequest(seat)
	if !ok {
		return
	}
	if _, err := t.apply(seat, req); err != nil {
		logger.Log.Warnf("table %s: bot seat %d %s rejected: %v", t.code, seat, req.Type, err)
		fallback, ok := t.fallbackRequest(seat)
		if !ok {
			return
		}
		if _, err := t.apply(seat, fallback); err != nil {
			logger.Log.Errorf("table %s: bot seat %d fallback %s: %v", t.code, seat, fallback.Type, err)
			return
		}
	}
	t.afterAction()
}

// botRequest 机器人该做的操作
func (t *Table) botRequest(seat int) (ActionRequest, bool) {
	g := t.game
	if g.Phase() == mahjong.PhasePlaying && g.CurrentSeat() == seat && !g.NeedDiscard(seat) {
		return ActionRequest{Type: ActDraw}, true
	}
	d, ok := t.brain(seat).Decide(g.SeatView(seat))
	if !ok {
		return ActionRequest{}, false
	}
	return decisionRequest(d), true
}

// fallbackRequest 决策被拒绝时的保底操作
func (t *Table) fallbackRequest(seat int) (ActionRequest, bool) {
	g := t.game
	switch g.Phase() {
	case mahjong.PhaseClaim:
		return ActionRequest{Type: ActPass}, true
	case mahjong.PhasePlaying:
		view := g.SeatView(seat)
		if view.MyTurn && view.NeedDiscard && len(view.Hand) > 0 {
			return ActionRequest{Type: ActDiscard, TileID: view.Hand[len(view.Hand)-1].ID}, true
		}
	}
	return ActionRequest{}, false
}

func decisionRequest(d bot.Decision) ActionRequest {
	switch d.Kind {
	case bot.DecideSelfWin:
		return ActionRequest{Type: ActWin}
	case bot.DecideConcealedKong:
		return ActionRequest{Type: ActConcealedKong, TileIDs: d.TileIDs}
	case bot.DecideAddKong:
		return ActionRequest{Type: ActAddKong, TileID: d.TileID, MeldIndex: d.MeldIndex}
	case bot.DecideClaim:
		return ActionRequest{Type: d.Claim.String(), TileIDs: d.TileIDs}
	}
	return ActionRequest{Type: ActDiscard, TileID: d.TileID}
}

// roundEnd 同步积分并推送结算
func (t *Table) roundEnd() {
	scores := t.game.Scores()
	for seat, p := range t.players {
		if p != nil {
			p.score = scores[seat]
		}
	}
	end := map[string]any{
		"round":     t.game.Round(),
		"draw_game": t.game.IsDrawGame(),
		"scores":    scores,
	}
	if win := t.game.WinResult(); win != nil {
		end["win"] = win
	}
	logger.Log.Infof("table %s: round %d over, scores %v", t.code, t.game.Round(), scores)
	for _, p := range t.players {
		t.sender.send(p, MsgRoundEnd, end, true)
	}
}

// Reconnect 玩家回到桌上，取消托管并重放本局消息
func (t *Table) Reconnect(uid string) (int, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	seat := t.seatOf(uid)
	if seat == mahjong.SeatNull {
		return seat, ErrNotSeated
	}
	p := t.players[seat]
	p.online = true
	if p.trustee {
		p.trustee = false
		t.scheduler.Cancel(t.id, seat)
		logger.Log.Infof("table %s: %s took back seat %d", t.code, uid, seat)
	}
	t.sender.sendHisMsges(p)
	t.sender.send(p, MsgTable, t.info(), false)
	if t.game != nil {
		t.sender.send(p, MsgSnapshot, t.game.Snapshot(), false)
		t.sender.send(p, MsgView, t.game.SeatView(seat), false)
		t.drive()
	}
	return seat, nil
}

// SetOnline 网络状态变化
func (t *Table) SetOnline(uid string, online bool) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if seat := t.seatOf(uid); seat != mahjong.SeatNull {
		t.players[seat].online = online
	}
}

func (t *Table) broadcastTable() {
	info := t.info()
	for _, p := range t.players {
		t.sender.send(p, MsgTable, info, false)
	}
}

// broadcastState 公开状态发给所有人，私有视图只发给本人
func (t *Table) broadcastState() {
	if t.game == nil {
		return
	}
	snapshot := t.game.Snapshot()
	for seat, p := range t.players {
		t.sender.send(p, MsgSnapshot, snapshot, true)
		t.sender.send(p, MsgView, t.game.SeatView(seat), true)
	}
}

func (t *Table) info() TableInfo {
	info := TableInfo{
		ID:    t.id,
		Code:  t.code,
		Host:  t.host,
		Phase: mahjong.PhaseWaiting.String(),
	}
	if t.game != nil {
		info.Phase = t.game.Phase().String()
		info.Round = t.game.Round()
	}
	for _, p := range t.players {
		if p != nil {
			info.Players = append(info.Players, p.info())
		}
	}
	return info
}

// Info 房间概况
func (t *Table) Info() TableInfo {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	return t.info()
}

// Snapshot 公开牌局状态，未开局返回nil
func (t *Table) Snapshot() *mahjong.Snapshot {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	if t.game == nil {
		return nil
	}
	return t.game.Snapshot()
}

// SeatView 某玩家的私有视图
func (t *Table) SeatView(uid string) (*mahjong.SeatView, error) {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	seat := t.seatOf(uid)
	if seat == mahjong.SeatNull {
		return nil, ErrNotSeated
	}
	if t.game == nil {
		return nil, ErrGameNotStarted
	}
	return t.game.SeatView(seat), nil
}

// idle 没有真人玩家在线
func (t *Table) idle() bool {
	t.gameMutex.Lock()
	defer t.gameMutex.Unlock()
	return !slices.ContainsFunc(t.players[:], func(p *Player) bool {
		return p != nil && !p.bot && p.online
	})
}

func (t *Table) close() {
	t.scheduler.CancelTable(t.id)
}
