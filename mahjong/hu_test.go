package mahjong_test

import (
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/kevin-chtw/tw_hkmj/mahjong"
)

type huCase struct {
	cards string
	melds int
	want  bool
}

func Test_CanWin(t *testing.T) {
	testCases := []huCase{
		{cards: "1d 2d 3d 4d 5d 6d 7d 8d 9d 2b 2b 3c 4c 5c", want: true},
		{cards: "1d 1d 1d 2d 3d 4d 5d 5d 6d 7d 8d 9d 9d 9d", want: true},
		{cards: "1d 9d 1b 9b 1c 9c Ew Sw Ww Nw Rd Gd Wd Wd", want: true},
		{cards: "1d 1d 3d 3d 5b 5b 7b 7b 2c 2c Ew Ew Rd Rd", want: true},
		{cards: "1d 1d 1d 1d 3d 3d 5b 5b 7b 7b 2c 2c Ew Ew", want: true},
		{cards: "1d 2d 4d 5d 7d 8d 1b 2b 4b 5b 7b 8b Ew Sw", want: false},
		{cards: "1d 9d 1b 9b 1c 9c Ew Sw Ww Nw Rd Gd 5d 5d", want: false},
		{cards: "1d 2d 3d 4d 5d 6d 2b 2b", melds: 2, want: true},
		{cards: "1d 2d 3d 4d 5d 6d 2b 2b", melds: 1, want: false},
		{cards: "Rd Rd", melds: 4, want: true},
		{cards: "1d 1d 3d 3d 5b 5b 7b 7b 2c 2c Ew", melds: 1, want: false},
		{cards: "8d 9d 1c 2c 3c 4c 5c 6c 7c 8c 9c Ww Ww 7d", want: true},
	}

	for i, tc := range testCases {
		t.Run("case"+strconv.Itoa(i), func(t *testing.T) {
			tiles := mustTiles(t, tc.cards)
			got := mahjong.CanWin(tiles, tc.melds)
			if got != tc.want {
				t.Errorf("CanWin(%s, %d) = %v, want %v", tc.cards, tc.melds, got, tc.want)
			}
		})
	}
}

func TestCanWinIgnoresBonus(t *testing.T) {
	tiles := mustTiles(t, "1d 2d 3d 4d 5d 6d 7d 8d 9d 2b 2b 3c 4c 5c F1 S3")
	if !mahjong.CanWin(tiles, 0) {
		t.Error("bonus tiles should be ignored")
	}
}

func TestDecomposeOrder(t *testing.T) {
	tiles := mustTiles(t, "1d 1d 1d 2d 2d 2d 3d 3d 3d 5b 5b Rd Rd Rd")
	all := mahjong.Decompose(tiles)
	if len(all) != 2 {
		t.Fatalf("got %d decompositions, want 2", len(all))
	}
	shape := func(melds []mahjong.Meld) []mahjong.MeldType {
		out := make([]mahjong.MeldType, len(melds))
		for i, m := range melds {
			out[i] = m.Type
		}
		return out
	}
	pongs := []mahjong.MeldType{mahjong.MeldPong, mahjong.MeldPong, mahjong.MeldPong, mahjong.MeldPair, mahjong.MeldPong}
	chows := []mahjong.MeldType{mahjong.MeldChow, mahjong.MeldChow, mahjong.MeldChow, mahjong.MeldPair, mahjong.MeldPong}
	if !slices.Equal(shape(all[0]), pongs) {
		t.Errorf("first = %v, want %v", all[0], pongs)
	}
	if !slices.Equal(shape(all[1]), chows) {
		t.Errorf("second = %v, want %v", all[1], chows)
	}

	first, ok := mahjong.FirstDecomposition(tiles)
	if !ok || !slices.Equal(shape(first), pongs) {
		t.Errorf("FirstDecomposition = %v, %v", first, ok)
	}
}

func sortedIDs(tiles []mahjong.Tile) []int {
	ids := make([]int, len(tiles))
	for i, t := range tiles {
		ids[i] = t.ID
	}
	slices.Sort(ids)
	return ids
}

// checkDecomposition 拆出来的面子合法且恰好覆盖输入
func checkDecomposition(t *testing.T, tiles []mahjong.Tile, melds []mahjong.Meld) {
	t.Helper()
	var covered []mahjong.Tile
	pairs := 0
	for _, m := range melds {
		if _, err := mahjong.NewMeld(m.Type, m.Tiles, false, mahjong.SeatNull); err != nil {
			t.Errorf("invalid meld %v: %v", m, err)
		}
		if m.Type == mahjong.MeldPair {
			pairs++
		}
		covered = append(covered, m.Tiles...)
	}
	if pairs != 1 {
		t.Errorf("%d pairs in %v", pairs, melds)
	}
	if !slices.Equal(sortedIDs(covered), sortedIDs(tiles)) {
		t.Errorf("decomposition %v does not cover %s", melds, mahjong.TilesString(tiles))
	}
}

// canPartition 按计数回溯，独立于拆牌搜索的参照实现
func canPartition(counts map[mahjong.TileKey]int, pair bool) bool {
	var low mahjong.TileKey = -1
	for _, key := range mahjong.PlayableKeys() {
		if counts[key] > 0 {
			low = key
			break
		}
	}
	if low < 0 {
		return pair
	}
	if !pair && counts[low] >= 2 {
		counts[low] -= 2
		ok := canPartition(counts, true)
		counts[low] += 2
		if ok {
			return true
		}
	}
	if counts[low] >= 3 {
		counts[low] -= 3
		ok := canPartition(counts, pair)
		counts[low] += 3
		if ok {
			return true
		}
	}
	if low.Suit() <= mahjong.SuitCharacters && low.Value() <= 7 {
		k1, k2 := mahjong.MakeKey(low.Suit(), low.Value()+1), mahjong.MakeKey(low.Suit(), low.Value()+2)
		if counts[k1] > 0 && counts[k2] > 0 {
			counts[low]--
			counts[k1]--
			counts[k2]--
			ok := canPartition(counts, pair)
			counts[low]++
			counts[k1]++
			counts[k2]++
			if ok {
				return true
			}
		}
	}
	return false
}

func randomWinningHand(rnd *rand.Rand) []mahjong.Tile {
	keys := mahjong.PlayableKeys()
	for {
		counts := make(map[mahjong.TileKey]int)
		var hand []mahjong.Tile
		take := func(key mahjong.TileKey) bool {
			if counts[key] >= 4 {
				return false
			}
			id, _ := mahjong.TileID(key.Suit(), key.Value(), counts[key])
			tile, _ := mahjong.TileFromID(id)
			counts[key]++
			hand = append(hand, tile)
			return true
		}
		ok := true
		for range 4 {
			key := keys[rnd.Intn(len(keys))]
			if rnd.Intn(2) == 0 && key.Suit() <= mahjong.SuitCharacters && key.Value() <= 7 {
				for v := range 3 {
					ok = ok && take(mahjong.MakeKey(key.Suit(), key.Value()+v))
				}
			} else {
				for range 3 {
					ok = ok && take(key)
				}
			}
		}
		pair := keys[rnd.Intn(len(keys))]
		ok = ok && take(pair) && take(pair)
		if ok {
			return hand
		}
	}
}

func TestDecompositionSoundness(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := range 300 {
		hand := randomWinningHand(rnd)
		all := mahjong.Decompose(hand)
		if len(all) == 0 {
			t.Fatalf("case %d: no decomposition for %s", i, mahjong.TilesString(hand))
		}
		for _, melds := range all {
			checkDecomposition(t, hand, melds)
		}
	}

	set := mahjong.NewTileSet()
	var playable []mahjong.Tile
	for _, tile := range set {
		if !tile.IsBonus() {
			playable = append(playable, tile)
		}
	}
	for i := range 2000 {
		rnd.Shuffle(len(playable), func(a, b int) { playable[a], playable[b] = playable[b], playable[a] })
		// 只取前两种花色，提高成和的比例
		var pool []mahjong.Tile
		for _, tile := range playable {
			if tile.Suit <= mahjong.SuitBamboo {
				pool = append(pool, tile)
			}
		}
		hand := slices.Clone(pool[:14])
		counts := make(map[mahjong.TileKey]int)
		for _, tile := range hand {
			counts[tile.Key()]++
		}
		want := canPartition(counts, false)
		all := mahjong.Decompose(hand)
		if (len(all) > 0) != want {
			t.Fatalf("case %d: %s decompositions=%d, reference=%v", i, mahjong.TilesString(hand), len(all), want)
		}
		for _, melds := range all {
			checkDecomposition(t, hand, melds)
		}
	}
}

func TestSpecialHandExclusivity(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	orphans := "1d 9d 1b 9b 1c 9c Ew Sw Ww Nw Rd Gd Wd"
	for i := range 13 {
		hand := mustTiles(t, orphans)
		hand = append(hand, mustTiles(t, hand[i].String())[0])
		hand[len(hand)-1].Copy = 1
		if !mahjong.IsThirteenOrphans(hand) {
			t.Errorf("%s is thirteen orphans", mahjong.TilesString(hand))
		}
		if mahjong.IsSevenPairs(hand) {
			t.Errorf("%s is both special hands", mahjong.TilesString(hand))
		}
	}

	keys := mahjong.PlayableKeys()
	for range 500 {
		var hand []mahjong.Tile
		for range 7 {
			key := keys[rnd.Intn(len(keys))]
			hand = append(hand, key.Tile(), key.Tile())
		}
		if mahjong.IsSevenPairs(hand) && mahjong.IsThirteenOrphans(hand) {
			t.Fatalf("%s is both special hands", mahjong.TilesString(hand))
		}
	}
}

func TestAnalyzeWin(t *testing.T) {
	cases := []struct {
		cards string
		kind  mahjong.HandKind
	}{
		{"1d 9d 1b 9b 1c 9c Ew Sw Ww Nw Rd Gd Wd 1d", mahjong.HandThirteenOrphans},
		{"1d 1d 3d 3d 5b 5b 7b 7b 2c 2c Ew Ew Rd Rd", mahjong.HandSevenPairs},
		{"1d 1d 2d 2d 3d 3d 4b 4b 5b 5b 6b 6b 9c 9c", mahjong.HandSevenPairs},
		{"1d 2d 3d 4d 5d 6d 7d 8d 9d 2b 2b 3c 4c 5c", mahjong.HandNormal},
	}
	for _, tc := range cases {
		t.Run(tc.cards, func(t *testing.T) {
			shape, ok := mahjong.AnalyzeWin(mustTiles(t, tc.cards), nil)
			if !ok || shape.Kind != tc.kind {
				t.Errorf("AnalyzeWin = %v,%v want %v", shape.Kind, ok, tc.kind)
			}
		})
	}

	declared, err := mahjong.NewMeld(mahjong.MeldPong, mustTiles(t, "Rd Rd Rd"), true, 2)
	if err != nil {
		t.Fatal(err)
	}
	shape, ok := mahjong.AnalyzeWin(mustTiles(t, "1d 1d 3d 3d 5b 5b 7b 7b 2c 2c Ew"), []mahjong.Meld{declared})
	if ok {
		t.Errorf("seven pairs with a declared meld accepted: %v", shape)
	}
}

func TestWaitingTiles(t *testing.T) {
	waits := mahjong.WaitingTiles(mustTiles(t, "1d 1d 1d 2d 3d 4d 5d 6d 7d 8d 9d 9d 9d"), 0)
	if len(waits) != 9 {
		t.Errorf("nine gates waits = %v, want all nine dots", waits)
	}
	waits = mahjong.WaitingTiles(mustTiles(t, "4b 6b 1b 2b 3b 7b 8b 9b Rd Rd Rd 9c 9c"), 0)
	want, _ := mahjong.ParseKey("5b")
	if len(waits) != 1 || waits[0] != want {
		t.Errorf("waits = %v, want [5b]", waits)
	}
	if waits := mahjong.WaitingTiles(mustTiles(t, "1d 2d"), 0); waits != nil {
		t.Errorf("wrong count waits = %v", waits)
	}
}
