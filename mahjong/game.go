package mahjong

import (
	"fmt"
	"slices"
	"time"

	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

// Game 一桌麻将的规则引擎。非并发安全，调用方负责串行化
type Game struct {
	dealer          *Dealer
	shuffler        Shuffler
	seats           [SeatCount]*PlayData
	phase           Phase
	curSeat         int
	banker          int
	prevailing      Wind
	round           int
	turn            int
	lastDiscard     *Tile
	lastDiscardSeat int
	ledger          *ClaimLedger
	kongSeat        int // 刚开杠、下一张是岭上牌的座位
	drawnSeat       int // 最后一张牌是自己摸的座位，吃碰后清空
	win             *WinResult
	drawGame        bool
	history         []Action
	generation      uint64
}

// Option 创建牌局的可选项
type Option func(*Game)

func WithShuffler(s Shuffler) Option {
	return func(g *Game) {
		g.shuffler = s
	}
}

// WithBanker 首局庄家
func WithBanker(seat int) Option {
	return func(g *Game) {
		if IsValidSeat(seat) {
			g.banker = seat
		}
	}
}

func WithPrevailingWind(w Wind) Option {
	return func(g *Game) {
		g.prevailing = w
	}
}

// WithScores 带入之前的积分
func WithScores(scores [SeatCount]int64) Option {
	return func(g *Game) {
		for seat, score := range scores {
			g.seats[seat].score = score
		}
	}
}

func NewGame(opts ...Option) *Game {
	g := &Game{
		dealer:          NewDealer(),
		shuffler:        NewRandShuffler(time.Now().UnixNano()),
		phase:           PhaseWaiting,
		curSeat:         SeatNull,
		lastDiscardSeat: SeatNull,
		kongSeat:        SeatNull,
		drawnSeat:       SeatNull,
		prevailing:      WindEast,
	}
	for seat := range g.seats {
		g.seats[seat] = NewPlayData(seat, 0)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) CurrentSeat() int {
	return g.curSeat
}

func (g *Game) Banker() int {
	return g.banker
}

func (g *Game) PrevailingWind() Wind {
	return g.prevailing
}

func (g *Game) Round() int {
	return g.round
}

func (g *Game) Generation() uint64 {
	return g.generation
}

func (g *Game) WinResult() *WinResult {
	return g.win
}

func (g *Game) IsDrawGame() bool {
	return g.drawGame
}

func (g *Game) SeatWind(seat int) Wind {
	return SeatWind(seat, g.banker)
}

func (g *Game) Ledger() *ClaimLedger {
	return g.ledger
}

func (g *Game) History() []Action {
	return slices.Clone(g.history)
}

func (g *Game) Score(seat int) int64 {
	return g.seats[seat].score
}

func (g *Game) WallCount() int {
	return g.dealer.RestCount()
}

func (g *Game) DeadWallCount() int {
	return g.dealer.DeadCount()
}

func (g *Game) LastDiscard() (Tile, int) {
	if g.lastDiscard == nil {
		return Tile{}, SeatNull
	}
	return *g.lastDiscard, g.lastDiscardSeat
}

// NeedDiscard 该座位手牌已满，等待出牌或自摸
func (g *Game) NeedDiscard(seat int) bool {
	return IsValidSeat(seat) && g.seats[seat].NeedDiscard()
}

// Scores 各座位累计积分
func (g *Game) Scores() [SeatCount]int64 {
	var scores [SeatCount]int64
	for seat, pd := range g.seats {
		scores[seat] = pd.score
	}
	return scores
}

// CanSelfWin 纯查询：当前手牌是否已和
func (g *Game) CanSelfWin(seat int) bool {
	if !IsValidSeat(seat) {
		return false
	}
	if g.drawnSeat != seat {
		return false
	}
	pd := g.seats[seat]
	return CanWin(pd.hand, pd.MeldCount())
}

// Initialize 开局：洗牌、分出岭上牌、发牌、补花，庄家先出牌
func (g *Game) Initialize() (*Snapshot, error) {
	if g.phase != PhaseWaiting && g.phase != PhaseFinished {
		return nil, fmt.Errorf("%w: game already in %s", ErrIllegalTurn, g.phase)
	}
	if err := g.start(g.banker); err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// NextRound 下一局：庄家轮转，每四局换圈风
func (g *Game) NextRound() (*Snapshot, error) {
	if g.phase != PhaseFinished {
		return nil, fmt.Errorf("%w: round not finished", ErrIllegalTurn)
	}
	round := g.round + 1
	prevailing := g.prevailing
	if round%SeatCount == 0 {
		prevailing = prevailing.Next()
	}
	if err := g.start(NextSeat(g.banker, 1)); err != nil {
		return nil, err
	}
	g.round = round
	g.prevailing = prevailing
	return g.Snapshot(), nil
}

func (g *Game) start(banker int) error {
	dealer := NewDealer()
	if err := dealer.Initialize(g.shuffler, banker); err != nil {
		return err
	}

	g.phase = PhaseDealing
	g.history = g.history[:0]
	var seats [SeatCount]*PlayData
	hands := dealer.Deal(banker)
	for i := range SeatCount {
		seat := NextSeat(banker, i)
		pd := NewPlayData(seat, g.seats[seat].score)
		for _, t := range hands[seat] {
			if t.IsBonus() {
				pd.bonus = append(pd.bonus, t)
				g.addHistory(seat, ActionBonus, &t)
			} else {
				pd.hand = append(pd.hand, t)
			}
		}
		seats[seat] = pd
	}
	for i := range SeatCount {
		seat := NextSeat(banker, i)
		pd := seats[seat]
		for len(pd.hand) < len(hands[seat]) {
			t, ok := dealer.DrawReplacement()
			if !ok {
				break
			}
			if t.IsBonus() {
				pd.bonus = append(pd.bonus, t)
				g.addHistory(seat, ActionBonus, &t)
			} else {
				pd.hand = append(pd.hand, t)
			}
		}
		SortTiles(pd.hand)
	}

	g.dealer = dealer
	g.seats = seats
	g.banker = banker
	g.curSeat = banker
	g.lastDiscard = nil
	g.lastDiscardSeat = SeatNull
	g.ledger = nil
	g.kongSeat = SeatNull
	g.drawnSeat = banker
	g.win = nil
	g.drawGame = false
	g.turn = 0
	g.phase = PhasePlaying
	g.generation++
	logger.Log.Debugf("round %d start, banker %d, wall %d, dead %d", g.round, banker, dealer.RestCount(), dealer.DeadCount())
	return nil
}

func (g *Game) addHistory(seat int, kind ActionKind, tile *Tile) {
	action := Action{Seat: seat, Kind: kind}
	if tile != nil {
		t := *tile
		action.Tile = &t
	}
	g.history = append(g.history, action)
}

// checkTurn 行牌阶段轮到seat，needDiscard表示要求手牌已满
func (g *Game) checkTurn(seat int, needDiscard bool) error {
	if g.phase != PhasePlaying {
		return fmt.Errorf("%w: phase is %s", ErrIllegalTurn, g.phase)
	}
	if seat != g.curSeat {
		return fmt.Errorf("%w: seat %d acting on seat %d's turn", ErrIllegalTurn, seat, g.curSeat)
	}
	if g.seats[seat].NeedDiscard() != needDiscard {
		if needDiscard {
			return fmt.Errorf("%w: seat %d has not drawn", ErrIllegalTurn, seat)
		}
		return fmt.Errorf("%w: seat %d already drew", ErrIllegalTurn, seat)
	}
	return nil
}

// Draw 当前座位摸牌
func (g *Game) Draw(seat int) (*Result, error) {
	if err := g.checkTurn(seat, false); err != nil {
		return nil, err
	}
	g.generation++
	return g.drawFor(seat, false), nil
}

// drawFor 摸牌，花牌移入花池后继续从岭上补；摸不到牌即流局
func (g *Game) drawFor(seat int, replacement bool) *Result {
	pd := g.seats[seat]
	var bonus []Tile
	for {
		var tile Tile
		var ok bool
		if replacement {
			tile, ok = g.dealer.DrawReplacement()
		} else {
			tile, ok = g.dealer.DrawTile()
		}
		if !ok {
			return g.finishDrawGame(seat)
		}
		if tile.IsBonus() {
			pd.bonus = append(pd.bonus, tile)
			bonus = append(bonus, tile)
			g.addHistory(seat, ActionBonus, &tile)
			replacement = true
			continue
		}

		pd.addTile(tile)
		g.drawnSeat = seat
		g.addHistory(seat, ActionDraw, &tile)
		logger.Log.Debugf("seat %d draw %s, wall %d", seat, tile, g.dealer.RestCount())
		return &Result{
			Kind:        ResultTileDrawn,
			Seat:        seat,
			Tile:        &tile,
			Bonus:       bonus,
			CanWin:      g.CanSelfWin(seat),
			KongOptions: g.FindKongOptions(seat),
			NextSeat:    seat,
		}
	}
}

func (g *Game) finishDrawGame(seat int) *Result {
	g.phase = PhaseFinished
	g.drawGame = true
	g.ledger = nil
	g.addHistory(seat, ActionDrawGame, nil)
	logger.Log.Infof("round %d draw game, wall exhausted", g.round)
	return &Result{Kind: ResultDrawGame, Seat: seat, NextSeat: SeatNull}
}

// Discard 当前座位出牌，有人能响应则进入响应阶段
func (g *Game) Discard(seat, tileID int) (*Result, error) {
	if err := g.checkTurn(seat, true); err != nil {
		return nil, err
	}
	pd := g.seats[seat]
	tile, ok := pd.removeTile(tileID)
	if !ok {
		return nil, fmt.Errorf("%w: seat %d has no tile %d", ErrIllegalTile, seat, tileID)
	}

	pd.discards = append(pd.discards, tile)
	g.lastDiscard = &tile
	g.lastDiscardSeat = seat
	g.kongSeat = SeatNull
	g.drawnSeat = SeatNull
	g.turn++
	g.generation++
	g.addHistory(seat, ActionDiscard, &tile)
	logger.Log.Debugf("seat %d discard %s", seat, tile)

	options := g.CheckClaims(seat, tile)
	if len(options) > 0 {
		g.phase = PhaseClaim
		g.ledger = newClaimLedger(seat, tile, options, nil)
		return &Result{
			Kind:     ResultClaimsPending,
			Seat:     seat,
			Tile:     &tile,
			Claims:   options,
			Pending:  g.ledger.Pending(),
			NextSeat: SeatNull,
		}, nil
	}

	g.curSeat = NextSeat(seat, 1)
	return &Result{Kind: ResultTurnAdvanced, Seat: seat, Tile: &tile, NextSeat: g.curSeat}, nil
}

// Claim 登记响应；行牌阶段的胡视为自摸
func (g *Game) Claim(seat int, typ ClaimType, data ClaimData) (*Result, error) {
	if g.phase == PhasePlaying && typ == ClaimWin {
		return g.SelfWin(seat)
	}
	if g.phase != PhaseClaim || g.ledger == nil {
		return nil, fmt.Errorf("%w: no claim pending, phase is %s", ErrIllegalTurn, g.phase)
	}
	option, err := g.ledger.validate(seat, typ, data)
	if err != nil {
		return nil, err
	}
	if !g.ledger.Complete() {
		pending := slices.DeleteFunc(g.ledger.Pending(), func(s int) bool { return s == seat })
		if len(pending) > 0 {
			g.ledger.register(option)
			g.generation++
			logger.Log.Debugf("seat %d claim %s registered, pending %v", seat, typ, pending)
			return &Result{Kind: ResultClaimRegistered, Seat: seat, Pending: pending, NextSeat: SeatNull}, nil
		}
	}
	return g.resolveClaims(option)
}

// Pass 放弃响应
func (g *Game) Pass(seat int) (*Result, error) {
	return g.Claim(seat, ClaimPass, ClaimData{})
}

// resolveClaims 最后一个响应到达后结算；先全部校验再修改状态
func (g *Game) resolveClaims(last ClaimOption) (*Result, error) {
	l := g.ledger
	trial := *l
	trial.register(last)
	trial.closeOut()
	best := trial.best()

	var tile Tile
	if best.Type != ClaimPass {
		tile = l.tile
	}
	if best.Type == ClaimWin {
		winner := g.seats[best.Seat]
		candidate := append(slices.Clone(winner.hand), tile)
		if _, ok := AnalyzeWin(candidate, winner.declaredMelds()); !ok {
			return nil, fmt.Errorf("%w: seat %d claimed win on %s", ErrIllegalMeld, best.Seat, tile)
		}
	}

	*l = trial
	g.ledger = nil
	g.generation++
	logger.Log.Debugf("claims on %s resolved: seat %d %s", l.tile, best.Seat, best.Type)

	if l.robbing != nil {
		robbing := l.robbing
		if best.Type == ClaimWin {
			g.seats[robbing.seat].removeTile(robbing.tileID)
			g.seats[best.Seat].addTile(tile)
			g.curSeat = best.Seat
			return g.processWin(best.Seat, robbing.seat, false, true), nil
		}
		g.phase = PhasePlaying
		return g.commitAddKong(robbing.seat, robbing.tileID, robbing.meldIndex), nil
	}

	discarder := g.seats[l.discarder]
	switch best.Type {
	case ClaimWin:
		discarder.popDiscard()
		g.seats[best.Seat].addTile(tile)
		g.curSeat = best.Seat
		return g.processWin(best.Seat, l.discarder, false, false), nil
	case ClaimKong, ClaimPong, ClaimChow:
		discarder.popDiscard()
		return g.commitMeld(best, l.discarder, tile), nil
	}

	g.phase = PhasePlaying
	g.curSeat = NextSeat(l.discarder, 1)
	return &Result{Kind: ResultTurnAdvanced, Seat: l.discarder, Tile: &l.tile, NextSeat: g.curSeat}, nil
}

var claimMelds = map[ClaimType]MeldType{
	ClaimChow: MeldChow,
	ClaimPong: MeldPong,
	ClaimKong: MeldKong,
}

var claimActions = map[ClaimType]ActionKind{
	ClaimChow: ActionChow,
	ClaimPong: ActionPong,
	ClaimKong: ActionKong,
}

func (g *Game) commitMeld(claim ClaimOption, discarder int, tile Tile) *Result {
	pd := g.seats[claim.Seat]
	pd.removeTiles(claim.Tiles)
	tiles := append(slices.Clone(claim.Tiles), tile)
	meld := Meld{Type: claimMelds[claim.Type], Tiles: SortedTiles(tiles), Exposed: true, Source: discarder}
	pd.melds = append(pd.melds, meld)

	g.phase = PhasePlaying
	g.curSeat = claim.Seat
	g.lastDiscard = nil
	g.lastDiscardSeat = SeatNull
	g.drawnSeat = SeatNull
	g.addHistory(claim.Seat, claimActions[claim.Type], &tile)
	logger.Log.Debugf("seat %d %s %s from seat %d", claim.Seat, claim.Type, meld, discarder)

	result := &Result{Kind: ResultMeldMade, Seat: claim.Seat, Tile: &tile, Meld: &meld, NextSeat: claim.Seat}
	if claim.Type == ClaimKong {
		result.Kind = ResultKong
		g.kongSeat = claim.Seat
		result.Draw = g.drawFor(claim.Seat, true)
	}
	return result
}

// SelfWin 自摸和牌，吃碰来的牌不算自摸
func (g *Game) SelfWin(seat int) (*Result, error) {
	if err := g.checkTurn(seat, true); err != nil {
		return nil, err
	}
	if g.drawnSeat != seat {
		return nil, fmt.Errorf("%w: seat %d did not draw its last tile", ErrIllegalTurn, seat)
	}
	pd := g.seats[seat]
	if _, ok := AnalyzeWin(pd.hand, pd.declaredMelds()); !ok {
		return nil, fmt.Errorf("%w: seat %d hand is not a win", ErrIllegalMeld, seat)
	}
	g.generation++
	return g.processWin(seat, SeatNull, true, false), nil
}

// processWin 重新拆牌算番、结算并结束本局，调用方已确认能和
func (g *Game) processWin(seat, discarder int, selfDrawn, robbing bool) *Result {
	pd := g.seats[seat]
	shape, _ := AnalyzeWin(pd.hand, pd.declaredMelds())
	ctx := WinContext{
		SeatWind:        g.SeatWind(seat),
		PrevailingWind:  g.prevailing,
		SelfDrawn:       selfDrawn,
		LastWallTile:    g.dealer.RestCount() == 0,
		KongReplacement: selfDrawn && g.kongSeat == seat,
		RobbingKong:     robbing,
	}

	var faan Faan
	if shape.Kind == HandNormal {
		faan = CalcFaan(shape.Melds, ctx)
	} else {
		faan = CalcSpecialFaan(shape.Kind, selfDrawn)
	}
	bonus := CalcBonusFaan(pd.bonus, ctx.SeatWind)
	total := faan.Total + bonus.Total
	base := BasePoints(total)
	payments := Payments(seat, discarder, selfDrawn, base)
	for s, delta := range payments {
		g.seats[s].score += delta
	}

	g.win = &WinResult{
		Winner:     seat,
		Discarder:  discarder,
		SelfDrawn:  selfDrawn,
		Kind:       shape.Kind,
		Melds:      shape.Melds,
		Context:    ctx,
		Faan:       faan,
		Bonus:      bonus,
		TotalFaan:  total,
		BasePoints: base,
		Payments:   payments,
	}
	g.phase = PhaseFinished
	g.ledger = nil
	g.addHistory(seat, ActionWin, nil)
	logger.Log.Infof("round %d seat %d wins, %s, faan %d, base %d", g.round, seat, shape.Kind, total, base)
	return &Result{Kind: ResultWin, Seat: seat, Win: g.win, NextSeat: SeatNull}
}

// ConcealedKong 暗杠，需给出四张相同的暗牌
func (g *Game) ConcealedKong(seat int, tileIDs []int) (*Result, error) {
	if err := g.checkTurn(seat, true); err != nil {
		return nil, err
	}
	pd := g.seats[seat]
	if len(tileIDs) != 4 {
		return nil, fmt.Errorf("%w: concealed kong needs 4 tiles, got %d", ErrIllegalMeld, len(tileIDs))
	}
	tiles := make([]Tile, 0, 4)
	for _, id := range tileIDs {
		t, ok := pd.tileByID(id)
		if !ok || slices.Contains(tiles, t) {
			return nil, fmt.Errorf("%w: seat %d has no tile %d", ErrIllegalTile, seat, id)
		}
		tiles = append(tiles, t)
	}
	meld, err := NewMeld(MeldKong, tiles, false, SeatNull)
	if err != nil {
		return nil, err
	}

	pd.removeTiles(tiles)
	pd.concealedKongs = append(pd.concealedKongs, meld)
	g.kongSeat = seat
	g.generation++
	g.addHistory(seat, ActionConcealedKong, &tiles[0])
	logger.Log.Debugf("seat %d concealed kong %s", seat, meld)
	return &Result{Kind: ResultKong, Seat: seat, Meld: &meld, NextSeat: seat, Draw: g.drawFor(seat, true)}, nil
}

// AddKong 补杠；若有人能抢杠和，先进入只允许胡的响应阶段
func (g *Game) AddKong(seat, tileID, meldIndex int) (*Result, error) {
	if err := g.checkTurn(seat, true); err != nil {
		return nil, err
	}
	pd := g.seats[seat]
	tile, ok := pd.tileByID(tileID)
	if !ok {
		return nil, fmt.Errorf("%w: seat %d has no tile %d", ErrIllegalTile, seat, tileID)
	}
	if meldIndex < 0 || meldIndex >= len(pd.melds) {
		return nil, fmt.Errorf("%w: seat %d has no meld %d", ErrIllegalMeld, seat, meldIndex)
	}
	if m := pd.melds[meldIndex]; m.Type != MeldPong || !m.Tiles[0].Match(tile) {
		return nil, fmt.Errorf("%w: %s cannot extend %s", ErrIllegalMeld, tile, m)
	}

	var robbers []ClaimOption
	for i := 1; i < SeatCount; i++ {
		other := g.seats[NextSeat(seat, i)]
		if CanWin(append(slices.Clone(other.hand), tile), other.MeldCount()) {
			robbers = append(robbers, ClaimOption{Seat: other.seat, Type: ClaimWin})
		}
	}
	g.generation++
	if len(robbers) > 0 {
		g.phase = PhaseClaim
		g.ledger = newClaimLedger(seat, tile, robbers, &robbery{seat: seat, tileID: tileID, meldIndex: meldIndex})
		logger.Log.Debugf("seat %d add kong %s can be robbed by %v", seat, tile, g.ledger.Pending())
		return &Result{
			Kind:     ResultClaimsPending,
			Seat:     seat,
			Tile:     &tile,
			Claims:   robbers,
			Pending:  g.ledger.Pending(),
			Robbing:  true,
			NextSeat: SeatNull,
		}, nil
	}
	return g.commitAddKong(seat, tileID, meldIndex), nil
}

func (g *Game) commitAddKong(seat, tileID, meldIndex int) *Result {
	pd := g.seats[seat]
	tile, _ := pd.removeTile(tileID)
	meld := &pd.melds[meldIndex]
	meld.Type = MeldKong
	meld.Tiles = append(meld.Tiles, tile)
	SortTiles(meld.Tiles)
	g.curSeat = seat
	g.kongSeat = seat
	g.addHistory(seat, ActionAddKong, &tile)
	logger.Log.Debugf("seat %d add kong %s", seat, meld)
	done := meld.Clone()
	return &Result{Kind: ResultKong, Seat: seat, Tile: &tile, Meld: &done, NextSeat: seat, Draw: g.drawFor(seat, true)}
}
