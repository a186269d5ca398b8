package game

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

type taskKey struct {
	tableID    string
	seat       int
	generation uint64
}

// BotScheduler 所有桌子上机器人的延时操作
type BotScheduler struct {
	mu    sync.Mutex
	tasks map[taskKey]*time.Timer
}

func NewBotScheduler() *BotScheduler {
	return &BotScheduler{
		tasks: make(map[taskKey]*time.Timer),
	}
}

// Schedule 同一座位只保留最新的任务；fire在定时器协程里调用，需自行校验generation
func (s *BotScheduler) Schedule(tableID string, seat int, generation uint64, delay time.Duration, fire func(seat int, generation uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(tableID, seat)

	key := taskKey{tableID: tableID, seat: seat, generation: generation}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.tasks[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("panic recovered %s\n %s", r, string(debug.Stack()))
			}
		}()
		fire(seat, generation)
	})
	s.tasks[key] = timer
}

// Cancel 取消某座位的任务
func (s *BotScheduler) Cancel(tableID string, seat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(tableID, seat)
}

func (s *BotScheduler) cancelLocked(tableID string, seat int) {
	for key, timer := range s.tasks {
		if key.tableID == tableID && key.seat == seat {
			timer.Stop()
			delete(s.tasks, key)
		}
	}
}

// CancelTable 桌子解散或一局结束
func (s *BotScheduler) CancelTable(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.tasks {
		if key.tableID == tableID {
			timer.Stop()
			delete(s.tasks, key)
		}
	}
}

// Pending 某桌子上等待中的任务数
func (s *BotScheduler) Pending(tableID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.tasks {
		if key.tableID == tableID {
			n++
		}
	}
	return n
}
