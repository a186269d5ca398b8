package bot

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/kevin-chtw/tw_hkmj/mahjong"
)

// DecisionKind 机器人要做的操作
type DecisionKind int

const (
	DecideDiscard       DecisionKind = iota // 出牌
	DecideSelfWin                           // 自摸
	DecideConcealedKong                     // 暗杠
	DecideAddKong                           // 补杠
	DecideClaim                             // 响应别人的牌，Claim为ClaimPass时表示过
)

var decisionNames = [...]string{"discard", "self_win", "concealed_kong", "add_kong", "claim"}

func (k DecisionKind) String() string {
	if k < DecideDiscard || k > DecideClaim {
		return "unknown"
	}
	return decisionNames[k]
}

// Decision 一次决策
type Decision struct {
	Kind      DecisionKind
	Claim     mahjong.ClaimType
	TileID    int
	TileIDs   []int
	MeldIndex int
}

// Brain 机器人的决策器，只读座位视图，不修改牌局
type Brain struct {
	level Level
	cache *WaitCache
	mu    sync.Mutex
	rnd   *rand.Rand
}

// NewBrain cache可以为nil
func NewBrain(level Level, cache *WaitCache, seed int64) *Brain {
	return &Brain{
		level: level,
		cache: cache,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

func (b *Brain) Level() Level {
	return b.level
}

func (b *Brain) float() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Float64()
}

func (b *Brain) intn(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Intn(n)
}

// Decide 依次考虑自摸、开杠、出牌、响应；没有可做的返回false
func (b *Brain) Decide(view *mahjong.SeatView) (Decision, bool) {
	if view == nil {
		return Decision{}, false
	}
	if view.CanWin {
		return Decision{Kind: DecideSelfWin}, true
	}
	if len(view.KongOptions) > 0 {
		if d, ok := b.DecideKong(view); ok {
			return d, true
		}
	}
	if view.MyTurn && view.NeedDiscard {
		return b.ChooseDiscard(view), true
	}
	if len(view.ClaimOptions) > 0 {
		return b.DecideClaim(view, view.ClaimOptions), true
	}
	return Decision{}, false
}

type tileScore struct {
	tile  mahjong.Tile
	score int
}

// ChooseDiscard 出牌
func (b *Brain) ChooseDiscard(view *mahjong.SeatView) Decision {
	hand := mahjong.SortedTiles(view.Hand)
	if b.level == LevelHard {
		if tile, ok := b.readyDiscard(hand, len(view.Melds)+len(view.ConcealedKongs)); ok {
			return Decision{Kind: DecideDiscard, TileID: tile.ID}
		}
	}

	ranked := scoreTiles(hand)
	slices.SortStableFunc(ranked, func(a, c tileScore) int { return a.score - c.score })
	top := 1
	switch b.level {
	case LevelEasy:
		top = min(5, len(ranked))
	case LevelMedium:
		top = min(3, len(ranked))
	}
	pick := 0
	if top > 1 {
		pick = b.intn(top)
	}
	return Decision{Kind: DecideDiscard, TileID: ranked[pick].tile.ID}
}

// readyDiscard 打出后能听牌的牌里挑听得最多的
func (b *Brain) readyDiscard(hand []mahjong.Tile, meldCount int) (mahjong.Tile, bool) {
	var best mahjong.Tile
	most := 0
	tried := make(map[mahjong.TileKey]bool)
	for i, t := range hand {
		if tried[t.Key()] {
			continue
		}
		tried[t.Key()] = true
		rest := slices.Delete(slices.Clone(hand), i, i+1)
		if n := len(b.cache.Waits(rest, meldCount)); n > most {
			most = n
			best = t
		}
	}
	return best, most > 0
}

// scoreTiles 每张牌的保留价值，越低越该打
func scoreTiles(hand []mahjong.Tile) []tileScore {
	counts := make(map[mahjong.TileKey]int)
	for _, t := range hand {
		counts[t.Key()]++
	}
	has := func(suit mahjong.Suit, value int) bool {
		if value < 1 || value > 9 {
			return false
		}
		return counts[mahjong.MakeKey(suit, value)] > 0
	}

	scores := make([]tileScore, 0, len(hand))
	for _, t := range hand {
		score := 50
		count := counts[t.Key()]
		if count >= 3 {
			score += 80
		} else if count == 2 {
			score += 40
		}

		if t.IsSuited() {
			v := t.Value
			lower2, lower1 := has(t.Suit, v-2), has(t.Suit, v-1)
			upper1, upper2 := has(t.Suit, v+1), has(t.Suit, v+2)
			switch {
			case lower1 && upper1:
				score += 60
			case lower1 && lower2, upper1 && upper2:
				score += 55
			case lower1 || upper1:
				score += 30
			case lower2 || upper2:
				score += 15
			}
			if v == 1 || v == 9 {
				score -= 5
			}
			if v >= 3 && v <= 7 {
				score += 5
			}
		}

		if t.IsHonor() {
			if count == 1 {
				score -= 10
			}
			if t.Suit == mahjong.SuitDragons {
				score += 10
			}
		}
		scores = append(scores, tileScore{tile: t, score: score})
	}
	return scores
}

// DecideClaim 对别人打出的牌做响应
func (b *Brain) DecideClaim(view *mahjong.SeatView, options []mahjong.ClaimOption) Decision {
	find := func(typ mahjong.ClaimType) (mahjong.ClaimOption, bool) {
		i := slices.IndexFunc(options, func(o mahjong.ClaimOption) bool { return o.Type == typ })
		if i < 0 {
			return mahjong.ClaimOption{}, false
		}
		return options[i], true
	}
	claim := func(o mahjong.ClaimOption) Decision {
		ids := make([]int, len(o.Tiles))
		for i, t := range o.Tiles {
			ids[i] = t.ID
		}
		return Decision{Kind: DecideClaim, Claim: o.Type, TileIDs: ids}
	}

	if o, ok := find(mahjong.ClaimWin); ok {
		return claim(o)
	}
	if o, ok := find(mahjong.ClaimKong); ok {
		if b.level == LevelHard || b.float() > 0.2 {
			return claim(o)
		}
	}
	meldCount := len(view.Melds) + len(view.ConcealedKongs)
	if o, ok := find(mahjong.ClaimPong); ok {
		strength := EvaluateHandStrength(view.Hand, meldCount)
		if strength > 0.6 || b.level == LevelEasy {
			if b.float() > 0.3 {
				return claim(o)
			}
		} else if b.float() > 0.5 {
			return claim(o)
		}
	}
	if o, ok := find(mahjong.ClaimChow); ok {
		if meldCount >= 1 || EvaluateHandStrength(view.Hand, meldCount) > 0.5 {
			if b.float() > 0.4 {
				return claim(o)
			}
		}
	}
	return Decision{Kind: DecideClaim, Claim: mahjong.ClaimPass}
}

// DecideKong 大概率开第一个杠
func (b *Brain) DecideKong(view *mahjong.SeatView) (Decision, bool) {
	if len(view.KongOptions) == 0 {
		return Decision{}, false
	}
	if b.float() <= 0.15 {
		return Decision{}, false
	}
	o := view.KongOptions[0]
	if o.Type == mahjong.KongAdd {
		return Decision{Kind: DecideAddKong, TileID: o.Tiles[0].ID, MeldIndex: o.MeldIndex}, true
	}
	ids := make([]int, len(o.Tiles))
	for i, t := range o.Tiles {
		ids[i] = t.ID
	}
	return Decision{Kind: DecideConcealedKong, TileIDs: ids, MeldIndex: -1}, true
}

// EvaluateHandStrength 粗略估计手牌的成型程度，0到1
func EvaluateHandStrength(hand []mahjong.Tile, meldCount int) float64 {
	counts := make(map[mahjong.TileKey]int)
	for _, t := range hand {
		counts[t.Key()]++
	}
	pairs, trips := 0, 0
	for _, n := range counts {
		if n >= 3 {
			trips++
		} else if n == 2 {
			pairs++
		}
	}
	partials := 0
	for _, t := range hand {
		if t.IsSuited() && t.Value < 9 && counts[mahjong.MakeKey(t.Suit, t.Value+1)] > 0 {
			partials++
		}
	}
	score := float64(meldCount)*0.25 + float64(trips)*0.2 + float64(pairs)*0.1 + float64(partials)*0.05
	return min(1, score)
}
