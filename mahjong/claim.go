package mahjong

import (
	"fmt"
	"slices"
)

// ClaimType 对别人打出的牌的响应
type ClaimType int

const (
	ClaimPass ClaimType = iota // 过
	ClaimChow                  // 吃
	ClaimPong                  // 碰
	ClaimKong                  // 杠
	ClaimWin                   // 胡
)

var claimNames = map[ClaimType]string{
	ClaimPass: "pass",
	ClaimChow: "chow",
	ClaimPong: "pong",
	ClaimKong: "kong",
	ClaimWin:  "win",
}

var claimIDs = map[string]ClaimType{
	"pass": ClaimPass,
	"chow": ClaimChow,
	"pong": ClaimPong,
	"kong": ClaimKong,
	"win":  ClaimWin,
}

func (c ClaimType) String() string {
	if name, ok := claimNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c ClaimType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseClaimType 由名称解析
func ParseClaimType(name string) (ClaimType, bool) {
	c, ok := claimIDs[name]
	return c, ok
}

// Priority 胡 > 杠 = 碰 > 吃 > 过
func (c ClaimType) Priority() int {
	switch c {
	case ClaimWin:
		return 3
	case ClaimKong, ClaimPong:
		return 2
	case ClaimChow:
		return 1
	}
	return 0
}

// ClaimOption 某座位可做的响应；Tiles是要从手里拿出来的牌
type ClaimOption struct {
	Seat  int       `json:"seat"`
	Type  ClaimType `json:"type"`
	Tiles []Tile    `json:"tiles,omitempty"`
}

// ClaimData 响应附带的数据，吃牌时指定用手里哪两张
type ClaimData struct {
	TileIDs []int `json:"tile_ids,omitempty"`
}

// KongOption 自己回合可以开的杠
type KongOption struct {
	Type      KongType `json:"type"`
	Tiles     []Tile   `json:"tiles"`
	MeldIndex int      `json:"meld_index"`
}

// claimOptions 一个座位对某张牌能做的响应
func claimOptions(pd *PlayData, discarder int, tile Tile) []ClaimOption {
	var options []ClaimOption
	seat := pd.seat
	candidate := append(slices.Clone(pd.hand), tile)
	if CanWin(candidate, pd.MeldCount()) {
		options = append(options, ClaimOption{Seat: seat, Type: ClaimWin})
	}
	if tile.IsBonus() {
		return options
	}
	key := tile.Key()
	if pd.countKey(key) == 3 {
		options = append(options, ClaimOption{Seat: seat, Type: ClaimKong, Tiles: pd.findMatching(key, 3)})
	}
	if pd.countKey(key) >= 2 {
		options = append(options, ClaimOption{Seat: seat, Type: ClaimPong, Tiles: pd.findMatching(key, 2)})
	}
	if seat == NextSeat(discarder, 1) && tile.IsSuited() {
		for _, pair := range [][2]int{{-2, -1}, {-1, 1}, {1, 2}} {
			a, b := tile.Value+pair[0], tile.Value+pair[1]
			if a < 1 || b > 9 {
				continue
			}
			low := pd.findMatching(MakeKey(tile.Suit, a), 1)
			high := pd.findMatching(MakeKey(tile.Suit, b), 1)
			if low != nil && high != nil {
				options = append(options, ClaimOption{Seat: seat, Type: ClaimChow, Tiles: []Tile{low[0], high[0]}})
			}
		}
	}
	return options
}

// CheckClaims 纯查询：其他三家对这张牌能做的响应，按出牌者下家起的顺序
func (g *Game) CheckClaims(discarder int, tile Tile) []ClaimOption {
	var options []ClaimOption
	for i := 1; i < SeatCount; i++ {
		pd := g.seats[NextSeat(discarder, i)]
		if pd == nil {
			continue
		}
		options = append(options, claimOptions(pd, discarder, tile)...)
	}
	return options
}

// FindKongOptions 纯查询：暗杠和补杠
func (g *Game) FindKongOptions(seat int) []KongOption {
	if !IsValidSeat(seat) || g.seats[seat] == nil {
		return nil
	}
	pd := g.seats[seat]
	var options []KongOption
	seen := make(map[TileKey]bool)
	for _, t := range pd.hand {
		key := t.Key()
		if seen[key] || t.IsBonus() {
			continue
		}
		seen[key] = true
		if tiles := pd.findMatching(key, 4); tiles != nil {
			options = append(options, KongOption{Type: KongConcealed, Tiles: tiles, MeldIndex: -1})
		}
	}
	for i, m := range pd.melds {
		if m.Type != MeldPong {
			continue
		}
		if tiles := pd.findMatching(m.Key(), 1); tiles != nil {
			options = append(options, KongOption{Type: KongAdd, Tiles: tiles, MeldIndex: i})
		}
	}
	return options
}

type claimResponse struct {
	option ClaimOption
	seq    int
	set    bool
}

// robbery 抢杠时挂起的补杠
type robbery struct {
	seat      int
	tileID    int
	meldIndex int
}

// ClaimLedger 一轮响应的登记表，按座位定长
type ClaimLedger struct {
	discarder int
	tile      Tile
	options   [SeatCount][]ClaimOption
	responses [SeatCount]claimResponse
	seq       int
	robbing   *robbery
}

func newClaimLedger(discarder int, tile Tile, options []ClaimOption, robbing *robbery) *ClaimLedger {
	l := &ClaimLedger{discarder: discarder, tile: tile, robbing: robbing}
	for _, o := range options {
		l.options[o.Seat] = append(l.options[o.Seat], o)
	}
	return l
}

// Options 该座位本轮可选的响应
func (l *ClaimLedger) Options(seat int) []ClaimOption {
	if !IsValidSeat(seat) {
		return nil
	}
	return slices.Clone(l.options[seat])
}

func (l *ClaimLedger) Responded(seat int) bool {
	return IsValidSeat(seat) && l.responses[seat].set
}

// Pending 还没响应的有选项座位
func (l *ClaimLedger) Pending() []int {
	var seats []int
	for i := 1; i < SeatCount; i++ {
		seat := NextSeat(l.discarder, i)
		if len(l.options[seat]) > 0 && !l.responses[seat].set {
			seats = append(seats, seat)
		}
	}
	return seats
}

// match 在可选项里找到对应的响应，吃牌按指定的两张牌匹配
func (l *ClaimLedger) match(seat int, typ ClaimType, data ClaimData) (ClaimOption, error) {
	if typ == ClaimPass {
		return ClaimOption{Seat: seat, Type: ClaimPass}, nil
	}
	for _, o := range l.options[seat] {
		if o.Type != typ {
			continue
		}
		if len(data.TileIDs) == 0 || sameIDs(o.Tiles, data.TileIDs) {
			return o, nil
		}
	}
	return ClaimOption{}, fmt.Errorf("%w: seat %d cannot %s %s", ErrIllegalMeld, seat, typ, l.tile)
}

func sameIDs(tiles []Tile, ids []int) bool {
	if len(tiles) != len(ids) {
		return false
	}
	for _, t := range tiles {
		if !slices.Contains(ids, t.ID) {
			return false
		}
	}
	return true
}

// validate 检查能否登记，不修改登记表
func (l *ClaimLedger) validate(seat int, typ ClaimType, data ClaimData) (ClaimOption, error) {
	if !IsValidSeat(seat) || seat == l.discarder {
		return ClaimOption{}, fmt.Errorf("%w: seat %d cannot respond to its own tile", ErrIllegalTurn, seat)
	}
	if l.responses[seat].set {
		return ClaimOption{}, fmt.Errorf("%w: seat %d already responded", ErrIllegalTurn, seat)
	}
	return l.match(seat, typ, data)
}

func (l *ClaimLedger) register(option ClaimOption) {
	l.seq++
	l.responses[option.Seat] = claimResponse{option: option, seq: l.seq, set: true}
}

// Complete 所有有选项的座位都已响应
func (l *ClaimLedger) Complete() bool {
	return len(l.Pending()) == 0
}

// closeOut 未响应的座位记为过
func (l *ClaimLedger) closeOut() {
	for seat := range l.responses {
		if seat != l.discarder && !l.responses[seat].set {
			l.register(ClaimOption{Seat: seat, Type: ClaimPass})
		}
	}
}

// best 按优先级取最高，同级取先登记的
func (l *ClaimLedger) best() ClaimOption {
	var winner *claimResponse
	for seat := range l.responses {
		r := &l.responses[seat]
		if !r.set || r.option.Type == ClaimPass {
			continue
		}
		if winner == nil || r.option.Type.Priority() > winner.option.Type.Priority() ||
			(r.option.Type.Priority() == winner.option.Type.Priority() && r.seq < winner.seq) {
			winner = r
		}
	}
	if winner == nil {
		return ClaimOption{Seat: SeatNull, Type: ClaimPass}
	}
	return winner.option
}
