package mahjong

import (
	"fmt"

	"github.com/spf13/viper"
)

// ManualShuffler 配牌文件，未启用时交给fallback洗牌
//
//	enable: true
//	cards:          # 按座位0..3
//	  - "1d 1d 1d 2d ..."
//	wall: "Rd 5b"   # 发牌后的摸牌顺序
//	dead: "9c"      # 岭上牌
type ManualShuffler struct {
	vp       *viper.Viper
	fallback Shuffler
}

// NewManualShuffler 读取配牌文件
func NewManualShuffler(path string, fallback Shuffler) (*ManualShuffler, error) {
	m := &ManualShuffler{
		vp:       viper.New(),
		fallback: fallback,
	}
	m.vp.SetConfigType("yaml")
	m.vp.SetConfigFile(path)
	if err := m.vp.ReadInConfig(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ManualShuffler) Enabled() bool {
	return m != nil && m.vp.GetBool("enable")
}

func (m *ManualShuffler) Shuffle(tiles []Tile, banker int) error {
	if !m.Enabled() {
		return m.fallback.Shuffle(tiles, banker)
	}
	arranged, err := m.load()
	if err != nil {
		return err
	}
	return arranged.Shuffle(tiles, banker)
}

func (m *ManualShuffler) load() (*ArrangedShuffler, error) {
	parser := newTileParser()
	arranged := &ArrangedShuffler{Rest: m.fallback}
	cards := m.vp.GetStringSlice("cards")
	if len(cards) > SeatCount {
		return nil, fmt.Errorf("manual deal has %d hands", len(cards))
	}
	for seat, s := range cards {
		hand, err := parser.parse(s)
		if err != nil {
			return nil, fmt.Errorf("seat %d: %w", seat, err)
		}
		arranged.Hands[seat] = hand
	}
	var err error
	if arranged.Draws, err = parser.parse(m.vp.GetString("wall")); err != nil {
		return nil, fmt.Errorf("wall: %w", err)
	}
	if arranged.Dead, err = parser.parse(m.vp.GetString("dead")); err != nil {
		return nil, fmt.Errorf("dead: %w", err)
	}
	return arranged, nil
}
