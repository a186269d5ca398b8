package game

import (
	"math/rand"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kevin-chtw/tw_hkmj/bot"
	"github.com/kevin-chtw/tw_hkmj/mahjong"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

// ManagerOption 创建TableManager的可选项
type ManagerOption func(*TableManager)

// WithRoute 推送用的路由和前端服务器类型
func WithRoute(route, frontendType string) ManagerOption {
	return func(m *TableManager) {
		m.route = route
		m.frontendType = frontendType
	}
}

// WithShuffler 所有桌子用同一个洗牌器，测试用
func WithShuffler(s mahjong.Shuffler) ManagerOption {
	return func(m *TableManager) {
		m.shuffler = s
	}
}

func WithWaitCache(c *bot.WaitCache) ManagerOption {
	return func(m *TableManager) {
		m.cache = c
	}
}

// WithTick 清理空闲房间的间隔
func WithTick(d time.Duration) ManagerOption {
	return func(m *TableManager) {
		m.tickInterval = d
	}
}

// TableManager 管理游戏桌，按房间号索引
type TableManager struct {
	mu           sync.RWMutex
	tables       map[string]*Table // code -> Table
	players      map[string]string // uid -> code
	conf         *Config
	pusher       Pusher
	route        string
	frontendType string
	scheduler    *BotScheduler
	cache        *bot.WaitCache
	shuffler     mahjong.Shuffler
	tickInterval time.Duration
	ticker       *time.Ticker
	stop         chan struct{}
}

// NewTableManager 创建游戏桌管理器
func NewTableManager(conf *Config, pusher Pusher, opts ...ManagerOption) *TableManager {
	m := &TableManager{
		tables:       make(map[string]*Table),
		players:      make(map[string]string),
		conf:         conf,
		pusher:       pusher,
		route:        "hkmj.ack",
		frontendType: "proxy",
		scheduler:    NewBotScheduler(),
		tickInterval: time.Minute,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ticker = time.NewTicker(m.tickInterval)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("panic recovered %s\n %s", r, string(debug.Stack()))
			}
		}()
		for {
			select {
			case <-m.ticker.C:
				m.tick()
			case <-m.stop:
				return
			}
		}
	}()
	return m
}

// Close 停止清理协程和所有机器人任务
func (m *TableManager) Close() {
	m.ticker.Stop()
	close(m.stop)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		t.close()
	}
}

// tick 清理没有真人在线的房间
func (m *TableManager) tick() {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, table := range m.tables {
		tables = append(tables, table)
	}
	m.mu.RUnlock()

	for _, table := range tables {
		if table.idle() && time.Since(table.createdAt) > m.tickInterval {
			logger.Log.Infof("table %s idle, removed", table.code)
			m.Delete(table.code)
		}
	}
}

// newCode 未被占用的房间号，调用方持有写锁
func (m *TableManager) newCode() string {
	for {
		var b strings.Builder
		for range codeLength {
			b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
		}
		code := b.String()
		if _, ok := m.tables[code]; !ok {
			return code
		}
	}
}

// Create 开房，创建者坐0号位并成为房主
func (m *TableManager) Create(uid, name string) (*Table, int, error) {
	m.mu.Lock()
	if _, ok := m.players[uid]; ok {
		m.mu.Unlock()
		return nil, mahjong.SeatNull, ErrAlreadySeated
	}
	if limit := m.conf.Get().Room.Max; limit > 0 && len(m.tables) >= limit {
		m.mu.Unlock()
		return nil, mahjong.SeatNull, ErrRoomLimit
	}
	table := NewTable(m.newCode(), uid, m)
	m.tables[table.code] = table
	m.players[uid] = table.code
	m.mu.Unlock()

	seat, err := table.Join(uid, name)
	if err != nil {
		m.Delete(table.code)
		return nil, mahjong.SeatNull, err
	}
	logger.Log.Infof("table %s(%s) created by %s", table.code, table.id, uid)
	return table, seat, nil
}

// Join 进入房间
func (m *TableManager) Join(code, uid, name string) (*Table, int, error) {
	table := m.Get(code)
	if table == nil {
		return nil, mahjong.SeatNull, ErrRoomNotFound
	}
	m.mu.Lock()
	if other, ok := m.players[uid]; ok && other != table.code {
		m.mu.Unlock()
		return nil, mahjong.SeatNull, ErrAlreadySeated
	}
	m.players[uid] = table.code
	m.mu.Unlock()

	seat, err := table.Join(uid, name)
	if err != nil {
		if table.SeatOf(uid) == mahjong.SeatNull {
			m.unbind(uid)
		}
		return nil, mahjong.SeatNull, err
	}
	return table, seat, nil
}

// Leave 离开所在房间，开局前房间空了就解散
func (m *TableManager) Leave(uid string) (*Table, error) {
	table := m.Locate(uid)
	if table == nil {
		return nil, ErrNotSeated
	}
	if err := table.Leave(uid); err != nil {
		return nil, err
	}
	if table.SeatOf(uid) == mahjong.SeatNull {
		m.unbind(uid)
	}
	if table.empty() {
		m.Delete(table.code)
	}
	return table, nil
}

func (m *TableManager) unbind(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, uid)
}

// Get 按房间号查找
func (m *TableManager) Get(code string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[strings.ToUpper(code)]
}

// Locate 玩家所在的房间
func (m *TableManager) Locate(uid string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.players[uid]
	if !ok {
		return nil
	}
	return m.tables[code]
}

// List 所有房间，按房间号排序
func (m *TableManager) List() []TableInfo {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	infos := make([]TableInfo, 0, len(tables))
	for _, t := range tables {
		infos = append(infos, t.Info())
	}
	slices.SortFunc(infos, func(a, b TableInfo) int { return strings.Compare(a.Code, b.Code) })
	return infos
}

// Delete 解散房间
func (m *TableManager) Delete(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[code]
	if !ok {
		return
	}
	table.close()
	delete(m.tables, code)
	for uid, c := range m.players {
		if c == code {
			delete(m.players, uid)
		}
	}
}

func (m *TableManager) Scheduler() *BotScheduler {
	return m.scheduler
}
