package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevin-chtw/tw_hkmj/mahjong"
	"github.com/kevin-chtw/tw_hkmj/utils"
	"google.golang.org/protobuf/types/known/anypb"
)

type fakePusher struct {
	mu   sync.Mutex
	msgs map[string][]string // uid -> 消息种类
}

func newFakePusher() *fakePusher {
	return &fakePusher{msgs: make(map[string][]string)}
}

func (f *fakePusher) SendPushToUsers(route string, v interface{}, uids []string, frontendType string) ([]string, error) {
	typ, _, err := utils.OpenEnvelope(v.(*anypb.Any))
	if err != nil {
		return uids, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uid := range uids {
		f.msgs[uid] = append(f.msgs[uid], typ)
	}
	return nil, nil
}

func (f *fakePusher) types(uid string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs[uid]...)
}

func (f *fakePusher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = make(map[string][]string)
}

func testConfig(delay int) *Config {
	c := DefaultConfig()
	conf := c.Get()
	conf.Bot.Delay = DelayConf{Draw: delay, Turn: delay, Claim: delay, Resolve: delay}
	c.Set(conf)
	return c
}

func newTestManager(t *testing.T, delay int) (*TableManager, *fakePusher) {
	t.Helper()
	pusher := newFakePusher()
	m := NewTableManager(testConfig(delay), pusher, WithShuffler(mahjong.NewRandShuffler(5)))
	t.Cleanup(m.Close)
	return m, pusher
}

func TestRoomCodes(t *testing.T) {
	m, _ := newTestManager(t, 1000)
	seen := make(map[string]bool)
	for i := range 50 {
		table, seat, err := m.Create(fmt.Sprintf("u%d", i), "p")
		if err != nil {
			t.Fatal(err)
		}
		if seat != 0 {
			t.Errorf("creator seat = %d", seat)
		}
		code := table.Code()
		if len(code) != codeLength {
			t.Fatalf("code %q", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q has %c", code, c)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %s", code)
		}
		seen[code] = true
		if m.Get(strings.ToLower(code)) != table {
			t.Errorf("Get(%s) failed", strings.ToLower(code))
		}
	}
	if n := len(m.List()); n != 50 {
		t.Errorf("List() has %d rooms", n)
	}
	if _, _, err := m.Create("u0", "again"); !errors.Is(err, ErrAlreadySeated) {
		t.Errorf("second room for same uid: %v", err)
	}
}

func TestRoomLimit(t *testing.T) {
	m, _ := newTestManager(t, 1000)
	conf := m.conf.Get()
	conf.Room.Max = 1
	m.conf.Set(conf)
	if _, _, err := m.Create("a", "a"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Create("b", "b"); !errors.Is(err, ErrRoomLimit) {
		t.Errorf("Create = %v, want ErrRoomLimit", err)
	}
}

func TestSeating(t *testing.T) {
	m, _ := newTestManager(t, 1000)
	table, _, err := m.Create("host", "Host")
	if err != nil {
		t.Fatal(err)
	}
	if _, seat, err := m.Join(table.Code(), "p1", "P1"); err != nil || seat != 1 {
		t.Fatalf("Join = %d, %v", seat, err)
	}
	if _, _, err := m.Join("ZZZZZ", "p2", "P2"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("join unknown room: %v", err)
	}
	if err := table.Start("host"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("Start = %v, want ErrNotEnoughPlayers", err)
	}
	if _, err := table.AddBot("p1"); !errors.Is(err, ErrNotHost) {
		t.Errorf("AddBot by guest = %v", err)
	}
	if n, err := table.FillBots("host"); err != nil || n != 2 {
		t.Fatalf("FillBots = %d, %v", n, err)
	}
	if _, _, err := m.Join(table.Code(), "p3", "P3"); !errors.Is(err, ErrTableFull) {
		t.Errorf("Join full table = %v", err)
	}
	if m.Locate("p3") != nil {
		t.Error("rejected player still bound to room")
	}

	if _, err := m.Leave("host"); err != nil {
		t.Fatal(err)
	}
	if info := table.Info(); info.Host != "p1" || len(info.Players) != 3 {
		t.Errorf("after host left: %+v", info)
	}
	if m.Locate("host") != nil {
		t.Error("host still bound")
	}
	if _, err := m.Leave("p1"); err != nil {
		t.Fatal(err)
	}
	if m.Get(table.Code()) != nil {
		t.Error("room with only bots not removed")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBotsFinishRound(t *testing.T) {
	m, pusher := newTestManager(t, 1)
	table, _, err := m.Create("host", "Host")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.FillBots("host"); err != nil {
		t.Fatal(err)
	}
	if err := table.Start("host"); err != nil {
		t.Fatal(err)
	}
	if types := pusher.types("host"); len(types) == 0 || types[len(types)-1] != MsgView {
		t.Errorf("host pushes = %v", types)
	}
	// 房主离开后四个座位都由机器人打
	if _, err := m.Leave("host"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 30*time.Second, func() bool {
		return table.Snapshot().Phase == mahjong.PhaseFinished
	})

	snap := table.Snapshot()
	var sum int64
	for _, s := range snap.Seats {
		sum += s.Score
	}
	if sum != 0 {
		t.Errorf("scores %v do not sum to zero", snap.Seats)
	}
	if snap.Win == nil && !snap.DrawGame {
		t.Error("finished without a result")
	}
	waitFor(t, time.Second, func() bool { return m.Scheduler().Pending(table.ID()) == 0 })

	pusher.reset()
	if _, err := table.Reconnect("host"); err != nil {
		t.Fatal(err)
	}
	types := pusher.types("host")
	if len(types) < 3 || types[0] != MsgHisBegin {
		t.Fatalf("replay = %v", types)
	}
	end := -1
	for i, typ := range types {
		if typ == MsgHisEnd {
			end = i
		}
	}
	if end < 0 || !strings.Contains(strings.Join(types[:end], ","), MsgRoundEnd) {
		t.Errorf("replay without round end: %v", types)
	}
}

func TestStaleBotTaskDropped(t *testing.T) {
	m, _ := newTestManager(t, 3600*1000)
	table, _, err := m.Create("host", "Host")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.FillBots("host"); err != nil {
		t.Fatal(err)
	}
	if err := table.Start("host"); err != nil {
		t.Fatal(err)
	}
	if n := m.Scheduler().Pending(table.ID()); n != 0 {
		t.Errorf("%d bot tasks while the banker is human", n)
	}

	// 离开后托管，重连时取消托管任务
	if _, err := m.Leave("host"); err != nil {
		t.Fatal(err)
	}
	if n := m.Scheduler().Pending(table.ID()); n != 1 {
		t.Errorf("trustee tasks = %d, want 1", n)
	}
	if _, err := table.Reconnect("host"); err != nil {
		t.Fatal(err)
	}
	if n := m.Scheduler().Pending(table.ID()); n != 0 {
		t.Errorf("tasks after reconnect = %d, want 0", n)
	}

	table.gameMutex.Lock()
	old := table.game.Generation()
	view := table.game.SeatView(0)
	table.gameMutex.Unlock()
	if _, err := table.Action("host", ActionRequest{Type: ActDiscard, TileID: view.Hand[0].ID}); err != nil {
		t.Fatal(err)
	}

	table.gameMutex.Lock()
	current := table.game.Generation()
	phase := table.game.Phase()
	table.gameMutex.Unlock()
	if current == old {
		t.Fatal("discard did not bump generation")
	}

	table.onBotTimer(1, old)
	table.onBotTimer(0, current)
	table.gameMutex.Lock()
	defer table.gameMutex.Unlock()
	if table.game.Generation() != current || table.game.Phase() != phase {
		t.Errorf("stale task changed the game: gen %d->%d", current, table.game.Generation())
	}
}

func TestActionRejected(t *testing.T) {
	m, _ := newTestManager(t, 3600*1000)
	table, _, err := m.Create("host", "Host")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.Action("host", ActionRequest{Type: ActDiscard}); !errors.Is(err, ErrGameNotStarted) {
		t.Errorf("action before start: %v", err)
	}
	if _, err := table.FillBots("host"); err != nil {
		t.Fatal(err)
	}
	if err := table.Start("host"); err != nil {
		t.Fatal(err)
	}
	gen := table.Snapshot().Generation

	cases := []struct {
		req  ActionRequest
		want error
	}{
		{ActionRequest{Type: "shout"}, ErrUnknownActionType},
		{ActionRequest{Type: ActDiscard, TileID: -1}, mahjong.ErrIllegalTile},
		{ActionRequest{Type: ActDraw}, mahjong.ErrIllegalTurn},
		{ActionRequest{Type: ActPong}, mahjong.ErrIllegalTurn},
		{ActionRequest{Type: ActAddKong, TileID: -1, MeldIndex: 0}, mahjong.ErrIllegalTile},
	}
	for _, tc := range cases {
		t.Run(tc.req.Type, func(t *testing.T) {
			if _, err := table.Action("host", tc.req); !errors.Is(err, tc.want) {
				t.Errorf("Action(%+v) = %v, want %v", tc.req, err, tc.want)
			}
		})
	}
	if _, err := table.Action("stranger", ActionRequest{Type: ActDraw}); !errors.Is(err, ErrNotSeated) {
		t.Errorf("stranger action: %v", err)
	}
	if got := table.Snapshot().Generation; got != gen {
		t.Errorf("generation %d -> %d after rejected actions", gen, got)
	}
}

func TestSchedulerKeepsLatest(t *testing.T) {
	s := NewBotScheduler()
	fired := make(chan uint64, 4)
	fire := func(seat int, gen uint64) { fired <- gen }

	s.Schedule("t1", 2, 1, 20*time.Millisecond, fire)
	s.Schedule("t1", 2, 2, time.Millisecond, fire)
	s.Schedule("t1", 3, 2, time.Hour, fire)
	s.Cancel("t1", 3)

	select {
	case gen := <-fired:
		if gen != 2 {
			t.Errorf("fired generation %d, want 2", gen)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
	select {
	case gen := <-fired:
		t.Errorf("replaced task fired with generation %d", gen)
	case <-time.After(50 * time.Millisecond):
	}
	if n := s.Pending("t1"); n != 0 {
		t.Errorf("pending = %d", n)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hkmj.yaml")
	data := "bot:\n  level: hard\n  delay:\n    draw: 10\nroom:\n  max: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	d := c.Delays()
	if d.Draw != 10*time.Millisecond || d.Turn != time.Second || d.Claim != 1500*time.Millisecond || d.Resolve != 500*time.Millisecond {
		t.Errorf("delays = %+v", d)
	}
	if c.BotLevel().String() != "hard" || c.Get().Room.Max != 3 {
		t.Errorf("conf = %+v", c.Get())
	}
	if conf := c.Get(); conf.Cluster.Enable || len(conf.Cluster.Endpoints) != 1 || conf.Log.Level != "info" || conf.Listen != ":3250" {
		t.Errorf("defaults = %+v", conf)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}
