package mahjong

import (
	"slices"
)

// SeatSnapshot 公开的座位信息，不含暗手
type SeatSnapshot struct {
	Seat           int    `json:"seat"`
	Wind           Wind   `json:"wind"`
	HandCount      int    `json:"hand_count"`
	Melds          []Meld `json:"melds"`
	ConcealedKongs int    `json:"concealed_kongs"`
	Discards       []Tile `json:"discards"`
	Bonus          []Tile `json:"bonus"`
	Score          int64  `json:"score"`
}

// Snapshot 牌局的公开状态
type Snapshot struct {
	Phase           Phase                   `json:"phase"`
	CurrentSeat     int                     `json:"current_seat"`
	Banker          int                     `json:"banker"`
	PrevailingWind  Wind                    `json:"prevailing_wind"`
	Round           int                     `json:"round"`
	Turn            int                     `json:"turn"`
	WallCount       int                     `json:"wall_count"`
	DeadWallCount   int                     `json:"dead_wall_count"`
	LastDiscard     *Tile                   `json:"last_discard,omitempty"`
	LastDiscardSeat int                     `json:"last_discard_seat"`
	ClaimTile       *Tile                   `json:"claim_tile,omitempty"`
	PendingSeats    []int                   `json:"pending_seats,omitempty"`
	Seats           [SeatCount]SeatSnapshot `json:"seats"`
	LastAction      *Action                 `json:"last_action,omitempty"`
	HistoryCount    int                     `json:"history_count"`
	Win             *WinResult              `json:"win,omitempty"`
	DrawGame        bool                    `json:"draw_game"`
	Generation      uint64                  `json:"generation"`
}

// SeatView 某座位自己能看到的信息
type SeatView struct {
	Seat           int           `json:"seat"`
	Wind           Wind          `json:"wind"`
	Hand           []Tile        `json:"hand"`
	Melds          []Meld        `json:"melds"`
	ConcealedKongs []Meld        `json:"concealed_kongs"`
	Bonus          []Tile        `json:"bonus"`
	MyTurn         bool          `json:"my_turn"`
	NeedDiscard    bool          `json:"need_discard"`
	CanWin         bool          `json:"can_win"`
	KongOptions    []KongOption  `json:"kong_options,omitempty"`
	ClaimOptions   []ClaimOption `json:"claim_options,omitempty"`
	Waiting        []TileKey     `json:"waiting,omitempty"`
}

// Snapshot 当前公开状态的副本
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		Phase:           g.phase,
		CurrentSeat:     g.curSeat,
		Banker:          g.banker,
		PrevailingWind:  g.prevailing,
		Round:           g.round,
		Turn:            g.turn,
		WallCount:       g.dealer.RestCount(),
		DeadWallCount:   g.dealer.DeadCount(),
		LastDiscardSeat: g.lastDiscardSeat,
		HistoryCount:    len(g.history),
		Win:             g.win,
		DrawGame:        g.drawGame,
		Generation:      g.generation,
	}
	if g.lastDiscard != nil {
		t := *g.lastDiscard
		s.LastDiscard = &t
	}
	if g.ledger != nil {
		t := g.ledger.tile
		s.ClaimTile = &t
		s.PendingSeats = g.ledger.Pending()
	}
	if n := len(g.history); n > 0 {
		a := g.history[n-1]
		s.LastAction = &a
	}
	for seat, pd := range g.seats {
		s.Seats[seat] = SeatSnapshot{
			Seat:           seat,
			Wind:           g.SeatWind(seat),
			HandCount:      len(pd.hand),
			Melds:          cloneMelds(pd.melds),
			ConcealedKongs: len(pd.concealedKongs),
			Discards:       slices.Clone(pd.discards),
			Bonus:          slices.Clone(pd.bonus),
			Score:          pd.score,
		}
	}
	return s
}

// SeatView 座位的私有视图，包括可做的操作
func (g *Game) SeatView(seat int) *SeatView {
	if !IsValidSeat(seat) {
		return nil
	}
	pd := g.seats[seat]
	v := &SeatView{
		Seat:           seat,
		Wind:           g.SeatWind(seat),
		Hand:           slices.Clone(pd.hand),
		Melds:          cloneMelds(pd.melds),
		ConcealedKongs: cloneMelds(pd.concealedKongs),
		Bonus:          slices.Clone(pd.bonus),
		MyTurn:         g.phase == PhasePlaying && g.curSeat == seat,
		NeedDiscard:    pd.NeedDiscard(),
	}
	switch g.phase {
	case PhasePlaying:
		if v.MyTurn && v.NeedDiscard {
			v.CanWin = g.CanSelfWin(seat)
			v.KongOptions = g.FindKongOptions(seat)
		}
		if !v.NeedDiscard {
			v.Waiting = WaitingTiles(pd.hand, pd.MeldCount())
		}
	case PhaseClaim:
		if !g.ledger.Responded(seat) {
			v.ClaimOptions = g.ledger.Options(seat)
		}
		v.Waiting = WaitingTiles(pd.hand, pd.MeldCount())
	}
	return v
}

// Tiles 所有位置上的牌，用于守恒检查
func (g *Game) Tiles() []Tile {
	tiles := slices.Clone(g.dealer.wall)
	tiles = append(tiles, g.dealer.deadWall...)
	for _, pd := range g.seats {
		tiles = append(tiles, pd.allTiles()...)
	}
	return tiles
}
