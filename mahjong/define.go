package mahjong

const (
	SeatCount     = 4   // 座位数
	SeatNull      = -1  // 无效座位
	TileCount     = 144 // 整副牌
	DeadWallCount = 14  // 岭上牌
	HandCount     = 13  // 手牌数
	LimitFaan     = 10  // 满番
)

// Suit 花色
type Suit int

const (
	SuitDots       Suit = iota // 筒
	SuitBamboo                 // 条
	SuitCharacters             // 万
	SuitWinds                  // 风
	SuitDragons                // 箭
	SuitFlowers                // 花
	SuitSeasons                // 季
	SuitCount
)

var suitNames = [SuitCount]string{"dots", "bamboo", "characters", "winds", "dragons", "flowers", "seasons"}

func (s Suit) String() string {
	if s < 0 || s >= SuitCount {
		return "unknown"
	}
	return suitNames[s]
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Wind 风位，同时用作门风和圈风
type Wind int

const (
	WindEast Wind = iota
	WindSouth
	WindWest
	WindNorth
)

var windNames = [SeatCount]string{"east", "south", "west", "north"}

func (w Wind) String() string {
	if w < WindEast || w > WindNorth {
		return "unknown"
	}
	return windNames[w]
}

func (w Wind) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// Next 下一个风位
func (w Wind) Next() Wind {
	return (w + 1) % SeatCount
}

const (
	DragonRed = iota
	DragonGreen
	DragonWhite
)

var dragonNames = [3]string{"red", "green", "white"}

// 花牌与季牌的序号对应门风：梅/春=东，兰/夏=南，菊/秋=西，竹/冬=北
const (
	FlowerPlum = iota
	FlowerOrchid
	FlowerChrysanthemum
	FlowerBamboo
)

var flowerNames = [4]string{"plum", "orchid", "chrysanthemum", "bamboo"}

const (
	SeasonSpring = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

var seasonNames = [4]string{"spring", "summer", "autumn", "winter"}

// Phase 牌局阶段
type Phase int

const (
	PhaseWaiting  Phase = iota // 未开局
	PhaseDealing               // 发牌中
	PhasePlaying               // 行牌
	PhaseClaim                 // 等待吃碰杠胡
	PhaseFinished              // 本局结束
)

var phaseNames = map[Phase]string{
	PhaseWaiting:  "waiting",
	PhaseDealing:  "dealing",
	PhasePlaying:  "playing",
	PhaseClaim:    "claim",
	PhaseFinished: "finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// KongType 杠的类型
type KongType int

const (
	KongExposed   KongType = iota // 直杠
	KongConcealed                 // 暗杠
	KongAdd                       // 补杠
)

// NextSeat 按座位顺序往后数step位
func NextSeat(seat, step int) int {
	return ((seat+step)%SeatCount + SeatCount) % SeatCount
}

// SeatWind 根据庄家计算门风
func SeatWind(seat, banker int) Wind {
	return Wind((seat - banker + SeatCount) % SeatCount)
}

// IsValidSeat 座位号是否合法
func IsValidSeat(seat int) bool {
	return seat >= 0 && seat < SeatCount
}
