package mahjong

import (
	"fmt"
	"math/rand"
	"slices"
)

// Shuffler 把一副新牌排成牌墙顺序，banker用于对齐发牌顺序
type Shuffler interface {
	Shuffle(tiles []Tile, banker int) error
}

// RandShuffler Fisher-Yates洗牌
type RandShuffler struct {
	rnd *rand.Rand
}

func NewRandShuffler(seed int64) *RandShuffler {
	return &RandShuffler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandShuffler) Shuffle(tiles []Tile, _ int) error {
	for i := len(tiles) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
	return nil
}

// ArrangedShuffler 按指定手牌和摸牌顺序摆牌，没指定的位置按原顺序补齐
type ArrangedShuffler struct {
	Hands [SeatCount][]Tile // 按座位
	Draws []Tile            // 发牌后依次摸到的牌
	Dead  []Tile            // 岭上牌，从前往后补
	Rest  Shuffler          // 剩余的牌先用它打乱，为空则保持原顺序
}

func (a *ArrangedShuffler) Shuffle(tiles []Tile, banker int) error {
	positions := dealPositions(banker)
	liveCount := len(tiles) - DeadWallCount
	slots := make([]*Tile, len(tiles))
	used := make(map[int]bool)
	place := func(pos int, t Tile) error {
		if used[t.ID] {
			return fmt.Errorf("tile %s(%d) arranged twice", t, t.ID)
		}
		used[t.ID] = true
		slots[pos] = &t
		return nil
	}

	for seat, hand := range a.Hands {
		if len(hand) > len(positions[seat]) {
			return fmt.Errorf("seat %d arranged %d tiles, max %d", seat, len(hand), len(positions[seat]))
		}
		for i, t := range hand {
			if err := place(positions[seat][i], t); err != nil {
				return err
			}
		}
	}
	next := HandCount*SeatCount + 1
	if next+len(a.Draws) > liveCount || len(a.Dead) > DeadWallCount {
		return fmt.Errorf("arranged wall too long")
	}
	for i, t := range a.Draws {
		if err := place(next+i, t); err != nil {
			return err
		}
	}
	for i, t := range a.Dead {
		if err := place(liveCount+i, t); err != nil {
			return err
		}
	}

	rest := make([]Tile, 0, len(tiles))
	for _, t := range tiles {
		if !used[t.ID] {
			rest = append(rest, t)
		}
	}
	if a.Rest != nil {
		if err := a.Rest.Shuffle(rest, banker); err != nil {
			return err
		}
	}
	for i := range slots {
		if slots[i] == nil {
			slots[i] = &rest[0]
			rest = rest[1:]
		}
	}
	for i, t := range slots {
		tiles[i] = *t
	}
	return nil
}

// dealPositions 每个座位起手牌在牌墙里的位置：三轮每人4张，再每人1张，庄家多1张
func dealPositions(banker int) [SeatCount][]int {
	var positions [SeatCount][]int
	pos := 0
	for range 3 {
		for i := range SeatCount {
			seat := NextSeat(banker, i)
			for range 4 {
				positions[seat] = append(positions[seat], pos)
				pos++
			}
		}
	}
	for i := range SeatCount {
		seat := NextSeat(banker, i)
		positions[seat] = append(positions[seat], pos)
		pos++
	}
	positions[banker] = append(positions[banker], pos)
	return positions
}

// Dealer 牌墙
type Dealer struct {
	wall     []Tile
	deadWall []Tile
}

func NewDealer() *Dealer {
	return &Dealer{}
}

// Initialize 生成并洗牌，末尾14张作为岭上牌
func (d *Dealer) Initialize(s Shuffler, banker int) error {
	tiles := NewTileSet()
	if err := s.Shuffle(tiles, banker); err != nil {
		return err
	}
	split := len(tiles) - DeadWallCount
	d.wall = tiles[:split:split]
	d.deadWall = slices.Clone(tiles[split:])
	return nil
}

// Deal 按发牌顺序发起手牌
func (d *Dealer) Deal(banker int) [SeatCount][]Tile {
	var hands [SeatCount][]Tile
	positions := dealPositions(banker)
	total := 0
	for seat := range hands {
		hands[seat] = make([]Tile, len(positions[seat]))
		total += len(positions[seat])
	}
	for seat, ps := range positions {
		for i, p := range ps {
			hands[seat][i] = d.wall[p]
		}
	}
	d.wall = d.wall[total:]
	return hands
}

// DrawTile 从牌墙前端摸牌
func (d *Dealer) DrawTile() (Tile, bool) {
	if len(d.wall) == 0 {
		return Tile{}, false
	}
	tile := d.wall[0]
	d.wall = d.wall[1:]
	return tile, true
}

// DrawReplacement 补牌，优先岭上牌，没有了再摸牌墙
func (d *Dealer) DrawReplacement() (Tile, bool) {
	if len(d.deadWall) == 0 {
		return d.DrawTile()
	}
	tile := d.deadWall[0]
	d.deadWall = d.deadWall[1:]
	return tile, true
}

// RestCount 牌墙剩余
func (d *Dealer) RestCount() int {
	return len(d.wall)
}

func (d *Dealer) DeadCount() int {
	return len(d.deadWall)
}
