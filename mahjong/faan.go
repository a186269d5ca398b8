package mahjong

// 番种名称
const (
	FaanDragonPong        = "Dragon Pong"
	FaanSeatWind          = "Seat Wind"
	FaanPrevailingWind    = "Prevailing Wind"
	FaanSelfDrawn         = "Self Drawn"
	FaanAllChows          = "All Chows"
	FaanAllPongs          = "All Pongs"
	FaanMixedOneSuit      = "Mixed One Suit"
	FaanPureOneSuit       = "Pure One Suit"
	FaanAllHonors         = "All Honors"
	FaanSmallThreeDragons = "Small Three Dragons"
	FaanBigThreeDragons   = "Big Three Dragons"
	FaanSmallFourWinds    = "Small Four Winds"
	FaanBigFourWinds      = "Big Four Winds"
	FaanFullyConcealed    = "Fully Concealed"
	FaanLastTile          = "Last Tile"
	FaanKongReplacement   = "Kong Replacement"
	FaanRobbingKong       = "Robbing Kong"
	FaanThirteenOrphans   = "Thirteen Orphans"
	FaanSevenPairs        = "Seven Pairs"
	FaanSeatFlower        = "Seat Flower"
	FaanSeatSeason        = "Seat Season"
	FaanAllFlowers        = "All Flowers"
	FaanAllSeasons        = "All Seasons"
)

// WinContext 算番需要的场况
type WinContext struct {
	SeatWind        Wind `json:"seat_wind"`
	PrevailingWind  Wind `json:"prevailing_wind"`
	SelfDrawn       bool `json:"self_drawn"`
	LastWallTile    bool `json:"last_wall_tile"`
	KongReplacement bool `json:"kong_replacement"`
	RobbingKong     bool `json:"robbing_kong"`
}

type FaanItem struct {
	Name string `json:"name"`
	Faan int    `json:"faan"`
}

// Faan 番数及明细；Limit表示满番牌型
type Faan struct {
	Total int        `json:"total"`
	Items []FaanItem `json:"items"`
	Limit bool       `json:"limit"`
}

func (f *Faan) add(name string, faan int) {
	f.Items = append(f.Items, FaanItem{Name: name, Faan: faan})
	f.Total += faan
}

func limitFaan(name string, faan int) Faan {
	return Faan{Total: faan, Items: []FaanItem{{Name: name, Faan: faan}}, Limit: true}
}

// CalcFaan 按拆法算番；满番牌型直接覆盖其他番种，多个满番时取最后判定的
func CalcFaan(melds []Meld, ctx WinContext) Faan {
	var f Faan
	var sets []Meld
	var pair *Meld
	for i := range melds {
		if melds[i].Type == MeldPair {
			pair = &melds[i]
		} else {
			sets = append(sets, melds[i])
		}
	}

	dragonSets, windSets := 0, 0
	allChows, allPongs, concealed := len(sets) > 0, len(sets) > 0, true
	for _, m := range sets {
		t := m.Tiles[0]
		if m.IsPongOrKong() {
			switch t.Suit {
			case SuitDragons:
				dragonSets++
				f.add(FaanDragonPong, 1)
			case SuitWinds:
				windSets++
				if Wind(t.Value) == ctx.SeatWind {
					f.add(FaanSeatWind, 1)
				}
				if Wind(t.Value) == ctx.PrevailingWind {
					f.add(FaanPrevailingWind, 1)
				}
			}
		}
		if m.Type != MeldChow {
			allChows = false
		}
		if !m.IsPongOrKong() {
			allPongs = false
		}
		if m.Exposed {
			concealed = false
		}
	}

	if ctx.SelfDrawn {
		f.add(FaanSelfDrawn, 1)
	}
	commonHand := allChows && pair != nil && !pair.Tiles[0].IsHonor() && concealed
	if commonHand {
		f.add(FaanAllChows, 1)
	}
	if allPongs {
		f.add(FaanAllPongs, 3)
	}

	suits := make(map[Suit]struct{})
	honors, total := 0, 0
	for _, t := range meldTiles(melds) {
		total++
		if t.IsSuited() {
			suits[t.Suit] = struct{}{}
		} else if t.IsHonor() {
			honors++
		}
	}
	if len(suits) == 1 && honors > 0 {
		f.add(FaanMixedOneSuit, 3)
	}
	if len(suits) == 1 && honors == 0 {
		f.add(FaanPureOneSuit, 7)
	}

	var limit *Faan
	if len(suits) == 0 && honors > 0 && honors == total {
		l := limitFaan(FaanAllHonors, LimitFaan)
		limit = &l
	}

	dragonPair := pair != nil && pair.Tiles[0].Suit == SuitDragons
	windPair := pair != nil && pair.Tiles[0].Suit == SuitWinds
	if dragonSets == 2 && dragonPair {
		f.add(FaanSmallThreeDragons, 5)
	}
	if dragonSets == 3 {
		l := limitFaan(FaanBigThreeDragons, LimitFaan)
		limit = &l
	}
	if windSets == 3 && windPair {
		f.add(FaanSmallFourWinds, 6)
	}
	if windSets == 4 {
		l := limitFaan(FaanBigFourWinds, LimitFaan)
		limit = &l
	}

	if concealed && ctx.SelfDrawn && !commonHand {
		f.add(FaanFullyConcealed, 1)
	}
	if ctx.LastWallTile {
		f.add(FaanLastTile, 1)
	}
	if ctx.KongReplacement {
		f.add(FaanKongReplacement, 1)
	}
	if ctx.RobbingKong {
		f.add(FaanRobbingKong, 1)
	}

	if limit != nil {
		return *limit
	}
	return f
}

// CalcSpecialFaan 十三幺13番；七对4番，自摸加1
func CalcSpecialFaan(kind HandKind, selfDrawn bool) Faan {
	switch kind {
	case HandThirteenOrphans:
		return limitFaan(FaanThirteenOrphans, 13)
	case HandSevenPairs:
		var f Faan
		f.add(FaanSevenPairs, 4)
		if selfDrawn {
			f.add(FaanSelfDrawn, 1)
		}
		return f
	}
	return Faan{}
}

// CalcBonusFaan 花季番：本门花季各1番，集齐一套花或季另加2番
func CalcBonusFaan(bonus []Tile, seatWind Wind) Faan {
	var f Faan
	flowers, seasons := 0, 0
	for _, t := range bonus {
		switch t.Suit {
		case SuitFlowers:
			flowers++
			if t.Value == int(seatWind) {
				f.add(FaanSeatFlower, 1)
			}
		case SuitSeasons:
			seasons++
			if t.Value == int(seatWind) {
				f.add(FaanSeatSeason, 1)
			}
		}
	}
	if flowers == 4 {
		f.add(FaanAllFlowers, 2)
	}
	if seasons == 4 {
		f.add(FaanAllSeasons, 2)
	}
	return f
}

// BasePoints 底分 2^min(番,10)
func BasePoints(faan int) int64 {
	return int64(1) << min(max(faan, 0), LimitFaan)
}

// Payments 各座位得失分：自摸三家各付底分，点炮由放炮者付三倍
func Payments(winner, discarder int, selfDrawn bool, base int64) [SeatCount]int64 {
	var pay [SeatCount]int64
	if selfDrawn {
		for seat := range pay {
			if seat != winner {
				pay[seat] -= base
				pay[winner] += base
			}
		}
		return pay
	}
	pay[discarder] -= 3 * base
	pay[winner] += 3 * base
	return pay
}
