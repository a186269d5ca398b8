package mahjong

// ActionKind 牌局记录里的动作
type ActionKind int

const (
	ActionDraw ActionKind = iota
	ActionBonus
	ActionDiscard
	ActionChow
	ActionPong
	ActionKong
	ActionConcealedKong
	ActionAddKong
	ActionWin
	ActionDrawGame
)

var actionNames = [...]string{"draw", "bonus", "discard", "chow", "pong", "kong", "concealed_kong", "add_kong", "win", "draw_game"}

func (a ActionKind) String() string {
	if a < ActionDraw || a > ActionDrawGame {
		return "unknown"
	}
	return actionNames[a]
}

func (a ActionKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Action 一条牌局记录
type Action struct {
	Seat int        `json:"seat"`
	Kind ActionKind `json:"kind"`
	Tile *Tile      `json:"tile,omitempty"`
}

// ResultKind 操作的结果类型
type ResultKind int

const (
	ResultTileDrawn       ResultKind = iota // 摸到牌
	ResultDrawGame                          // 流局
	ResultTurnAdvanced                      // 无人响应，轮到下家
	ResultClaimsPending                     // 进入响应阶段
	ResultClaimRegistered                   // 响应已登记，等待其他人
	ResultMeldMade                          // 吃碰成功
	ResultKong                              // 开杠，附带补牌结果
	ResultWin                               // 和牌
)

var resultNames = [...]string{"tile_drawn", "draw_game", "turn_advanced", "claims_pending", "claim_registered", "meld_made", "kong", "win"}

func (r ResultKind) String() string {
	if r < ResultTileDrawn || r > ResultWin {
		return "unknown"
	}
	return resultNames[r]
}

func (r ResultKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result 一次操作的结果
type Result struct {
	Kind        ResultKind    `json:"kind"`
	Seat        int           `json:"seat"`
	Tile        *Tile         `json:"tile,omitempty"`
	Bonus       []Tile        `json:"bonus,omitempty"` // 摸牌过程中补的花
	CanWin      bool          `json:"can_win,omitempty"`
	KongOptions []KongOption  `json:"kong_options,omitempty"`
	Claims      []ClaimOption `json:"claims,omitempty"`
	Pending     []int         `json:"pending,omitempty"`
	Robbing     bool          `json:"robbing,omitempty"`
	NextSeat    int           `json:"next_seat"`
	Meld        *Meld         `json:"meld,omitempty"`
	Draw        *Result       `json:"draw,omitempty"` // 杠后补牌
	Win         *WinResult    `json:"win,omitempty"`
}

// Finished 本次操作后牌局是否结束
func (r *Result) Finished() bool {
	if r == nil {
		return false
	}
	if r.Kind == ResultDrawGame || r.Kind == ResultWin {
		return true
	}
	return r.Draw.Finished()
}

// WinResult 和牌结算
type WinResult struct {
	Winner     int              `json:"winner"`
	Discarder  int              `json:"discarder"`
	SelfDrawn  bool             `json:"self_drawn"`
	Kind       HandKind         `json:"kind"`
	Melds      []Meld           `json:"melds,omitempty"`
	Context    WinContext       `json:"context"`
	Faan       Faan             `json:"faan"`
	Bonus      Faan             `json:"bonus"`
	TotalFaan  int              `json:"total_faan"`
	BasePoints int64            `json:"base_points"`
	Payments   [SeatCount]int64 `json:"payments"`
}
