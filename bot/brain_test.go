package bot

import (
	"math"
	"slices"
	"testing"

	"github.com/kevin-chtw/tw_hkmj/mahjong"
)

func mustTiles(t *testing.T, s string) []mahjong.Tile {
	t.Helper()
	tiles, err := mahjong.ParseTiles(s)
	if err != nil {
		t.Fatalf("ParseTiles(%q): %v", s, err)
	}
	return tiles
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"easy":   LevelEasy,
		"Hard":   LevelHard,
		"medium": LevelMedium,
		"":       LevelMedium,
		"expert": LevelMedium,
	}
	for name, want := range cases {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestHardDiscardKeepsReady(t *testing.T) {
	hand := mustTiles(t, "1d 2d 3d 4b 5b 6b 7c 8c 9c 2d 2d 5c 5c Nw")
	view := &mahjong.SeatView{Hand: hand, MyTurn: true, NeedDiscard: true}
	for seed := range int64(5) {
		b := NewBrain(LevelHard, nil, seed)
		d, ok := b.Decide(view)
		if !ok || d.Kind != DecideDiscard {
			t.Fatalf("Decide = %v,%v", d, ok)
		}
		tile, _ := mahjong.TileFromID(d.TileID)
		if tile.String() != "Nw" {
			t.Errorf("seed %d discards %s, want Nw", seed, tile)
		}
	}
}

func TestDiscardFromHand(t *testing.T) {
	hand := mustTiles(t, "1d 4d 7d 2b 5b 8b 3c 6c 9c Ew Sw Rd Gd Wd")
	view := &mahjong.SeatView{Hand: hand, MyTurn: true, NeedDiscard: true}
	for _, level := range []Level{LevelEasy, LevelMedium, LevelHard} {
		t.Run(level.String(), func(t *testing.T) {
			b := NewBrain(level, nil, 3)
			for range 20 {
				d := b.ChooseDiscard(view)
				if !slices.ContainsFunc(hand, func(tile mahjong.Tile) bool { return tile.ID == d.TileID }) {
					t.Fatalf("discard %d not in hand", d.TileID)
				}
			}
		})
	}
}

func TestScoreTiles(t *testing.T) {
	hand := mustTiles(t, "4d 5d 6d Rd Rd Nw 1b")
	scores := make(map[string]int)
	for _, s := range scoreTiles(hand) {
		scores[s.tile.String()] = s.score
	}
	want := map[string]int{
		"5d": 50 + 60 + 5,
		"4d": 50 + 55 + 5,
		"Rd": 50 + 40 + 10,
		"Nw": 50 - 10,
		"1b": 50 - 5,
	}
	for code, score := range want {
		if scores[code] != score {
			t.Errorf("%s score = %d, want %d", code, scores[code], score)
		}
	}
}

func TestEvaluateHandStrength(t *testing.T) {
	hand := mustTiles(t, "1d 2d 3d Ew Ew Rd Rd Rd")
	got := EvaluateHandStrength(hand, 1)
	if math.Abs(got-0.65) > 1e-9 {
		t.Errorf("strength = %v, want 0.65", got)
	}
	full := mustTiles(t, "1d 1d 1d 2d 2d 2d 3d 3d 3d 4d 4d 4d 5d 5d")
	if got := EvaluateHandStrength(full, 2); got != 1 {
		t.Errorf("strength = %v, want capped at 1", got)
	}
}

func TestDecideClaimAlwaysWins(t *testing.T) {
	options := []mahjong.ClaimOption{
		{Seat: 1, Type: mahjong.ClaimPong, Tiles: mustTiles(t, "Rd Rd")},
		{Seat: 1, Type: mahjong.ClaimWin},
	}
	view := &mahjong.SeatView{Seat: 1, Hand: mustTiles(t, "1d 2d 3d Rd Rd")}
	for seed := range int64(20) {
		b := NewBrain(LevelEasy, nil, seed)
		if d := b.DecideClaim(view, options); d.Claim != mahjong.ClaimWin {
			t.Fatalf("seed %d claims %s, want win", seed, d.Claim)
		}
	}
}

func TestHardAlwaysClaimsKong(t *testing.T) {
	kongTiles := mustTiles(t, "5b 5b 5b")
	options := []mahjong.ClaimOption{
		{Seat: 2, Type: mahjong.ClaimKong, Tiles: kongTiles},
		{Seat: 2, Type: mahjong.ClaimPong, Tiles: kongTiles[:2]},
	}
	view := &mahjong.SeatView{Seat: 2, Hand: kongTiles}
	for seed := range int64(20) {
		d := NewBrain(LevelHard, nil, seed).DecideClaim(view, options)
		if d.Claim != mahjong.ClaimKong || len(d.TileIDs) != 3 {
			t.Fatalf("seed %d decision %+v, want kong", seed, d)
		}
	}
}

func TestChowNeedsDevelopedHand(t *testing.T) {
	options := []mahjong.ClaimOption{{Seat: 1, Type: mahjong.ClaimChow, Tiles: mustTiles(t, "2c 3c")}}
	view := &mahjong.SeatView{Seat: 1, Hand: mustTiles(t, "2c 3c Ew Sw Ww Nw Gd")}
	for seed := range int64(20) {
		d := NewBrain(LevelMedium, nil, seed).DecideClaim(view, options)
		if d.Claim != mahjong.ClaimPass {
			t.Fatalf("seed %d chows a weak hand", seed)
		}
	}
}

func TestDecideKongOption(t *testing.T) {
	pong := mustTiles(t, "Gd Gd Gd Gd")
	view := &mahjong.SeatView{
		MyTurn:      true,
		NeedDiscard: true,
		KongOptions: []mahjong.KongOption{{Type: mahjong.KongAdd, Tiles: pong[3:], MeldIndex: 0}},
	}
	kongs := 0
	b := NewBrain(LevelMedium, nil, 9)
	for range 200 {
		d, ok := b.DecideKong(view)
		if !ok {
			continue
		}
		kongs++
		if d.Kind != DecideAddKong || d.TileID != pong[3].ID || d.MeldIndex != 0 {
			t.Fatalf("decision %+v", d)
		}
	}
	if kongs < 140 || kongs == 200 {
		t.Errorf("declared %d of 200 kongs", kongs)
	}
}

func TestDecideNothing(t *testing.T) {
	view := &mahjong.SeatView{Hand: mustTiles(t, "1d 2d 3d")}
	if d, ok := NewBrain(LevelMedium, nil, 1).Decide(view); ok {
		t.Errorf("Decide = %+v, want nothing", d)
	}
}

func TestWaitCache(t *testing.T) {
	cache, err := NewWaitCache(1000)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	hands := []string{
		"1d 1d 1d 2d 3d 4d 5d 6d 7d 8d 9d 9d 9d",
		"4b 6b 1b 2b 3b 7b 8b 9b Rd Rd Rd 9c 9c",
		"1d 4d 7d 2b 5b 8b 3c 6c 9c Ew Sw Rd Gd",
	}
	for _, s := range hands {
		hand := mustTiles(t, s)
		want := mahjong.WaitingTiles(hand, 0)
		for range 3 {
			if got := cache.Waits(hand, 0); !slices.Equal(got, want) {
				t.Errorf("Waits(%s) = %v, want %v", s, got, want)
			}
		}
	}

	var nilCache *WaitCache
	hand := mustTiles(t, hands[1])
	if got := nilCache.Waits(hand, 0); len(got) != 1 {
		t.Errorf("nil cache waits = %v", got)
	}
}
