package mahjong

import (
	"slices"
)

// PlayData 单个座位的牌局数据
type PlayData struct {
	seat           int
	hand           []Tile
	melds          []Meld // 吃碰明杠，按顺序
	concealedKongs []Meld
	discards       []Tile
	bonus          []Tile
	score          int64
}

func NewPlayData(seat int, score int64) *PlayData {
	return &PlayData{
		seat:           seat,
		hand:           make([]Tile, 0, HandCount+1),
		melds:          make([]Meld, 0),
		concealedKongs: make([]Meld, 0),
		discards:       make([]Tile, 0),
		bonus:          make([]Tile, 0),
		score:          score,
	}
}

func (p *PlayData) MeldCount() int {
	return len(p.melds) + len(p.concealedKongs)
}

// NeedDiscard 手牌已满，该出牌
func (p *PlayData) NeedDiscard() bool {
	return len(p.hand) == ExpectedConcealed(p.MeldCount())
}

// declaredMelds 亮出的面子加暗杠，算番用
func (p *PlayData) declaredMelds() []Meld {
	return append(cloneMelds(p.melds), cloneMelds(p.concealedKongs)...)
}

func (p *PlayData) addTile(tile Tile) {
	p.hand = append(p.hand, tile)
	SortTiles(p.hand)
}

func (p *PlayData) hasTile(id int) bool {
	return indexOfID(p.hand, id) >= 0
}

func (p *PlayData) tileByID(id int) (Tile, bool) {
	if i := indexOfID(p.hand, id); i >= 0 {
		return p.hand[i], true
	}
	return Tile{}, false
}

func (p *PlayData) removeTile(id int) (Tile, bool) {
	i := indexOfID(p.hand, id)
	if i < 0 {
		return Tile{}, false
	}
	tile := p.hand[i]
	p.hand = slices.Delete(p.hand, i, i+1)
	return tile, true
}

// removeTiles 调用方已经校验过牌都在手里
func (p *PlayData) removeTiles(tiles []Tile) {
	for _, t := range tiles {
		p.removeTile(t.ID)
	}
}

// findMatching 手里前n张与key相同的牌
func (p *PlayData) findMatching(key TileKey, n int) []Tile {
	out := make([]Tile, 0, n)
	for _, t := range p.hand {
		if t.Key() == key {
			out = append(out, t)
			if len(out) == n {
				return out
			}
		}
	}
	return nil
}

func (p *PlayData) countKey(key TileKey) int {
	return countKey(p.hand, key)
}

func (p *PlayData) popDiscard() (Tile, bool) {
	if len(p.discards) == 0 {
		return Tile{}, false
	}
	tile := p.discards[len(p.discards)-1]
	p.discards = p.discards[:len(p.discards)-1]
	return tile, true
}

// allTiles 该座位名下所有的牌，用于守恒检查
func (p *PlayData) allTiles() []Tile {
	tiles := slices.Clone(p.hand)
	tiles = append(tiles, meldTiles(p.melds)...)
	tiles = append(tiles, meldTiles(p.concealedKongs)...)
	tiles = append(tiles, p.discards...)
	return append(tiles, p.bonus...)
}
