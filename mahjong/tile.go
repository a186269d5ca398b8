package mahjong

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Tile 一张实体牌，ID是唯一身份，Suit+Value决定是否"同一种牌"
type Tile struct {
	ID    int  `json:"id"`
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
	Copy  int  `json:"copy"`
}

// TileKey 牌型键，忽略实体身份
type TileKey int

// MakeKey 由花色和点数生成牌型键
func MakeKey(suit Suit, value int) TileKey {
	return TileKey(int(suit)<<4 | value)
}

func (k TileKey) Suit() Suit {
	return Suit(int(k) >> 4)
}

func (k TileKey) Value() int {
	return int(k) & 0xF
}

// Tile 返回一张仅用于判定的虚拟牌
func (k TileKey) Tile() Tile {
	return Tile{ID: -1, Suit: k.Suit(), Value: k.Value()}
}

func (k TileKey) String() string {
	return tileCode(k.Suit(), k.Value())
}

func (k TileKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (t Tile) Key() TileKey {
	return MakeKey(t.Suit, t.Value)
}

// Match 两张牌是否同一种牌
func (t Tile) Match(o Tile) bool {
	return t.Suit == o.Suit && t.Value == o.Value
}

func (t Tile) IsSuited() bool {
	return t.Suit <= SuitCharacters
}

func (t Tile) IsHonor() bool {
	return t.Suit == SuitWinds || t.Suit == SuitDragons
}

func (t Tile) IsBonus() bool {
	return t.Suit == SuitFlowers || t.Suit == SuitSeasons
}

// IsTerminal 幺九牌
func (t Tile) IsTerminal() bool {
	return t.IsSuited() && (t.Value == 1 || t.Value == 9)
}

func (t Tile) IsTerminalOrHonor() bool {
	return t.IsTerminal() || t.IsHonor()
}

func (t Tile) String() string {
	return tileCode(t.Suit, t.Value)
}

// Name 展示用名称
func (t Tile) Name() string {
	switch t.Suit {
	case SuitWinds:
		return Wind(t.Value).String() + " wind"
	case SuitDragons:
		return dragonNames[t.Value] + " dragon"
	case SuitFlowers:
		return flowerNames[t.Value] + " flower"
	case SuitSeasons:
		return seasonNames[t.Value] + " season"
	default:
		return strconv.Itoa(t.Value) + " " + t.Suit.String()
	}
}

// Less 展示顺序：花色，点数，最后按ID稳定
func Less(a, b Tile) bool {
	if a.Suit != b.Suit {
		return a.Suit < b.Suit
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.ID < b.ID
}

func compareTiles(a, b Tile) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

// SortTiles 原地排序
func SortTiles(tiles []Tile) {
	slices.SortFunc(tiles, compareTiles)
}

// SortedTiles 返回排好序的副本
func SortedTiles(tiles []Tile) []Tile {
	out := slices.Clone(tiles)
	SortTiles(out)
	return out
}

func suitCopies(suit Suit) (values, copies int) {
	switch suit {
	case SuitDots, SuitBamboo, SuitCharacters:
		return 9, 4
	case SuitWinds:
		return 4, 4
	case SuitDragons:
		return 3, 4
	case SuitFlowers, SuitSeasons:
		return 4, 1
	}
	return 0, 0
}

func suitBase(suit Suit) int {
	base := 0
	for s := SuitDots; s < suit; s++ {
		values, copies := suitCopies(s)
		base += values * copies
	}
	return base
}

func validValue(suit Suit, value int) bool {
	values, _ := suitCopies(suit)
	if suit <= SuitCharacters {
		return value >= 1 && value <= values
	}
	return value >= 0 && value < values
}

// TileID 计算实体牌的ID，与NewTileSet的生成顺序一致
func TileID(suit Suit, value, copy int) (int, bool) {
	if suit < SuitDots || suit >= SuitCount || !validValue(suit, value) {
		return 0, false
	}
	_, copies := suitCopies(suit)
	if copy < 0 || copy >= copies {
		return 0, false
	}
	index := value
	if suit <= SuitCharacters {
		index = value - 1
	}
	return suitBase(suit) + index*copies + copy, true
}

// TileFromID 由ID还原实体牌
func TileFromID(id int) (Tile, bool) {
	if id < 0 || id >= TileCount {
		return Tile{}, false
	}
	for suit := SuitDots; suit < SuitCount; suit++ {
		values, copies := suitCopies(suit)
		base := suitBase(suit)
		if id >= base+values*copies {
			continue
		}
		offset := id - base
		value := offset / copies
		if suit <= SuitCharacters {
			value++
		}
		return Tile{ID: id, Suit: suit, Value: value, Copy: offset % copies}, true
	}
	return Tile{}, false
}

// NewTileSet 生成一副144张的牌，ID按生成顺序分配
func NewTileSet() []Tile {
	tiles := make([]Tile, 0, TileCount)
	for suit := SuitDots; suit < SuitCount; suit++ {
		values, copies := suitCopies(suit)
		first := 0
		if suit <= SuitCharacters {
			first = 1
		}
		for v := first; v < first+values; v++ {
			for c := range copies {
				tiles = append(tiles, Tile{ID: len(tiles), Suit: suit, Value: v, Copy: c})
			}
		}
	}
	return tiles
}

// PlayableKeys 除花牌外的34种牌
func PlayableKeys() []TileKey {
	keys := make([]TileKey, 0, 34)
	for suit := SuitDots; suit <= SuitDragons; suit++ {
		values, _ := suitCopies(suit)
		first := 0
		if suit <= SuitCharacters {
			first = 1
		}
		for v := first; v < first+values; v++ {
			keys = append(keys, MakeKey(suit, v))
		}
	}
	return keys
}

var honorCodes = map[string]TileKey{
	"Ew": MakeKey(SuitWinds, int(WindEast)),
	"Sw": MakeKey(SuitWinds, int(WindSouth)),
	"Ww": MakeKey(SuitWinds, int(WindWest)),
	"Nw": MakeKey(SuitWinds, int(WindNorth)),
	"Rd": MakeKey(SuitDragons, DragonRed),
	"Gd": MakeKey(SuitDragons, DragonGreen),
	"Wd": MakeKey(SuitDragons, DragonWhite),
}

var suitLetters = map[byte]Suit{'d': SuitDots, 'b': SuitBamboo, 'c': SuitCharacters}

func tileCode(suit Suit, value int) string {
	switch suit {
	case SuitDots:
		return strconv.Itoa(value) + "d"
	case SuitBamboo:
		return strconv.Itoa(value) + "b"
	case SuitCharacters:
		return strconv.Itoa(value) + "c"
	case SuitFlowers:
		return "F" + strconv.Itoa(value+1)
	case SuitSeasons:
		return "S" + strconv.Itoa(value+1)
	}
	for code, key := range honorCodes {
		if key == MakeKey(suit, value) {
			return code
		}
	}
	return "??"
}

// ParseKey 解析牌码：1d-9d 1b-9b 1c-9c Ew Sw Ww Nw Rd Gd Wd F1-F4 S1-S4
func ParseKey(code string) (TileKey, error) {
	if key, ok := honorCodes[code]; ok {
		return key, nil
	}
	if len(code) != 2 {
		return 0, fmt.Errorf("bad tile code %q", code)
	}
	n := int(code[1] - '0')
	switch code[0] {
	case 'F':
		if n >= 1 && n <= 4 {
			return MakeKey(SuitFlowers, n-1), nil
		}
	case 'S':
		if n >= 1 && n <= 4 {
			return MakeKey(SuitSeasons, n-1), nil
		}
	default:
		n = int(code[0] - '0')
		if suit, ok := suitLetters[code[1]]; ok && n >= 1 && n <= 9 {
			return MakeKey(suit, n), nil
		}
	}
	return 0, fmt.Errorf("bad tile code %q", code)
}

// ParseTiles 解析以空格或逗号分隔的牌码，同一牌码重复出现时依次分配不同的实体牌
func ParseTiles(s string) ([]Tile, error) {
	return newTileParser().parse(s)
}

// tileParser 跨多次解析记录已用的实体牌
type tileParser struct {
	used map[TileKey]int
}

func newTileParser() *tileParser {
	return &tileParser{used: make(map[TileKey]int)}
}

func (p *tileParser) parse(s string) ([]Tile, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	tiles := make([]Tile, 0, len(fields))
	for _, f := range fields {
		key, err := ParseKey(f)
		if err != nil {
			return nil, err
		}
		id, ok := TileID(key.Suit(), key.Value(), p.used[key])
		if !ok {
			return nil, fmt.Errorf("too many copies of %s", f)
		}
		p.used[key]++
		t, _ := TileFromID(id)
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// TilesString 牌码串，用于日志
func TilesString(tiles []Tile) string {
	var sb strings.Builder
	for i, t := range tiles {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// HandKey 以排序后的牌码拼接，作为缓存键
func HandKey(tiles []Tile) string {
	return TilesString(SortedTiles(tiles))
}

func indexOfID(tiles []Tile, id int) int {
	return slices.IndexFunc(tiles, func(t Tile) bool { return t.ID == id })
}

func countKey(tiles []Tile, key TileKey) int {
	n := 0
	for _, t := range tiles {
		if t.Key() == key {
			n++
		}
	}
	return n
}

func withoutBonus(tiles []Tile) []Tile {
	out := make([]Tile, 0, len(tiles))
	for _, t := range tiles {
		if !t.IsBonus() {
			out = append(out, t)
		}
	}
	return out
}
