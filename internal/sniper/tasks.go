// internal/sniper/tasks.go
package sniper

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// TaskGroup runs named background tasks. A panic in a task is recovered
// and logged with its stack; one bad pool event must never take down the
// listeners.
type TaskGroup struct {
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewTaskGroup creates a task group.
func NewTaskGroup(logger *zap.Logger) *TaskGroup {
	return &TaskGroup{logger: logger.Named("tasks")}
}

// Go runs fn on its own goroutine under supervision.
func (g *TaskGroup) Go(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("task panicked",
					zap.String("task", name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		fn()
	}()
}

// Wait blocks until every started task has returned.
func (g *TaskGroup) Wait() {
	g.wg.Wait()
}
