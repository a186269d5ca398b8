package mahjong

import (
	"slices"
)

// HandKind 和牌牌型
type HandKind int

const (
	HandNormal          HandKind = iota // 四组面子一对将
	HandSevenPairs                      // 七对
	HandThirteenOrphans                 // 十三幺
)

func (k HandKind) String() string {
	switch k {
	case HandSevenPairs:
		return "seven pairs"
	case HandThirteenOrphans:
		return "thirteen orphans"
	}
	return "normal"
}

func (k HandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// decomposer 在排好序的牌上做回溯，用位图标记已用的牌，分支之间不复制牌数组
type decomposer struct {
	tiles []Tile
	used  uint64
	melds []Meld
	pair  bool
	yield func([]Meld) bool
}

// first 第一张未使用的牌
func (d *decomposer) first() int {
	for i := range d.tiles {
		if d.used&(1<<i) == 0 {
			return i
		}
	}
	return -1
}

// next i之后第一张未使用且牌型为key的牌
func (d *decomposer) next(i int, key TileKey) int {
	for j := i + 1; j < len(d.tiles); j++ {
		if d.used&(1<<j) == 0 && d.tiles[j].Key() == key {
			return j
		}
	}
	return -1
}

// search 返回false表示调用方要求停止
func (d *decomposer) search() bool {
	i := d.first()
	if i < 0 {
		if !d.pair {
			return true
		}
		return d.yield(slices.Clone(d.melds))
	}

	tile := d.tiles[i]
	key := tile.Key()
	if !d.pair {
		if j := d.next(i, key); j >= 0 {
			if !d.try(MeldPair, i, j) {
				return false
			}
		}
	}
	if j := d.next(i, key); j >= 0 {
		if k := d.next(j, key); k >= 0 {
			if !d.try(MeldPong, i, j, k) {
				return false
			}
		}
	}
	if tile.IsSuited() && tile.Value <= 7 {
		j := d.next(i, MakeKey(tile.Suit, tile.Value+1))
		k := d.next(i, MakeKey(tile.Suit, tile.Value+2))
		if j >= 0 && k >= 0 {
			if !d.try(MeldChow, i, j, k) {
				return false
			}
		}
	}
	return true
}

func (d *decomposer) try(typ MeldType, idx ...int) bool {
	var mask uint64
	tiles := make([]Tile, len(idx))
	for n, i := range idx {
		mask |= 1 << i
		tiles[n] = d.tiles[i]
	}
	pair := d.pair
	d.used |= mask
	d.melds = append(d.melds, Meld{Type: typ, Tiles: tiles, Source: SeatNull})
	if typ == MeldPair {
		d.pair = true
	}

	ok := d.search()

	d.pair = pair
	d.melds = d.melds[:len(d.melds)-1]
	d.used &^= mask
	return ok
}

func decompose(tiles []Tile, yield func([]Meld) bool) {
	if len(tiles)%3 != 2 || len(tiles) > 64 {
		return
	}
	d := &decomposer{
		tiles: SortedTiles(tiles),
		melds: make([]Meld, 0, len(tiles)/3+1),
		yield: yield,
	}
	d.search()
}

// Decompose 枚举所有拆法，按搜索顺序（将、刻、顺）返回
func Decompose(tiles []Tile) [][]Meld {
	var out [][]Meld
	decompose(tiles, func(melds []Meld) bool {
		out = append(out, melds)
		return true
	})
	return out
}

// FirstDecomposition 搜索到的第一种拆法，算番只用这一种
func FirstDecomposition(tiles []Tile) ([]Meld, bool) {
	var found []Meld
	decompose(tiles, func(melds []Meld) bool {
		found = melds
		return false
	})
	return found, found != nil
}

// IsThirteenOrphans 十三幺：13种幺九字牌齐全，另加其中任意一张
func IsThirteenOrphans(tiles []Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	kinds := make(map[TileKey]struct{}, 13)
	for _, t := range tiles {
		if !t.IsTerminalOrHonor() {
			return false
		}
		kinds[t.Key()] = struct{}{}
	}
	return len(kinds) == 13
}

// IsSevenPairs 七对，四张相同算两对
func IsSevenPairs(tiles []Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	sorted := SortedTiles(tiles)
	for i := 0; i < len(sorted); i += 2 {
		if sorted[i].IsBonus() || !sorted[i].Match(sorted[i+1]) {
			return false
		}
	}
	return true
}

// ExpectedConcealed 和牌时暗手应有的牌数
func ExpectedConcealed(meldCount int) int {
	return (4-meldCount)*3 + 2
}

// CanWin 暗手（不含花）加上已有面子数是否构成和牌
func CanWin(concealed []Tile, meldCount int) bool {
	tiles := withoutBonus(concealed)
	if meldCount < 0 || meldCount > 4 || len(tiles) != ExpectedConcealed(meldCount) {
		return false
	}
	if meldCount == 0 && (IsThirteenOrphans(tiles) || IsSevenPairs(tiles)) {
		return true
	}
	_, ok := FirstDecomposition(tiles)
	return ok
}

// HandShape 和牌的最终拆法，Melds包含已经亮出的面子和暗杠
type HandShape struct {
	Kind  HandKind `json:"kind"`
	Melds []Meld   `json:"melds,omitempty"`
}

// AnalyzeWin 先判特殊牌型，再取第一种拆法
func AnalyzeWin(concealed []Tile, declared []Meld) (HandShape, bool) {
	tiles := withoutBonus(concealed)
	if len(tiles) != ExpectedConcealed(len(declared)) {
		return HandShape{}, false
	}
	if len(declared) == 0 {
		if IsThirteenOrphans(tiles) {
			return HandShape{Kind: HandThirteenOrphans}, true
		}
		if IsSevenPairs(tiles) {
			return HandShape{Kind: HandSevenPairs}, true
		}
	}
	melds, ok := FirstDecomposition(tiles)
	if !ok {
		return HandShape{}, false
	}
	return HandShape{Kind: HandNormal, Melds: append(cloneMelds(declared), melds...)}, true
}

// WaitingTiles 听哪些牌，手里已有4张的不算
func WaitingTiles(concealed []Tile, meldCount int) []TileKey {
	tiles := withoutBonus(concealed)
	if len(tiles) != ExpectedConcealed(meldCount)-1 {
		return nil
	}
	var waits []TileKey
	candidate := append(slices.Clone(tiles), Tile{})
	for _, key := range PlayableKeys() {
		if countKey(tiles, key) >= 4 {
			continue
		}
		candidate[len(candidate)-1] = key.Tile()
		if CanWin(candidate, meldCount) {
			waits = append(waits, key)
		}
	}
	return waits
}
