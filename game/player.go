package game

// Player 桌上的一个座位
type Player struct {
	uid     string
	name    string
	seat    int
	bot     bool  // 机器人座位
	trustee bool  // 玩家离开后由机器人代打
	online  bool  // 玩家是否在线
	score   int64 // 累计积分
}

// NewPlayer 创建新玩家实例
func NewPlayer(uid, name string, seat int, bot bool) *Player {
	return &Player{
		uid:    uid,
		name:   name,
		seat:   seat,
		bot:    bot,
		online: !bot,
	}
}

func (p *Player) UID() string {
	return p.uid
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Seat() int {
	return p.seat
}

// IsBot 是否由机器人出牌
func (p *Player) IsBot() bool {
	return p.bot || p.trustee
}

func (p *Player) Score() int64 {
	return p.score
}

// PlayerInfo 房间列表里展示的玩家
type PlayerInfo struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Seat    int    `json:"seat"`
	Bot     bool   `json:"bot"`
	Trustee bool   `json:"trustee"`
	Online  bool   `json:"online"`
	Score   int64  `json:"score"`
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{
		UID:     p.uid,
		Name:    p.name,
		Seat:    p.seat,
		Bot:     p.bot,
		Trustee: p.trustee,
		Online:  p.online,
		Score:   p.score,
	}
}
