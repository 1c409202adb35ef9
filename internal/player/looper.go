package player

import (
	"fmt"
	"sync"
	"time"
)

// Task is a unit of work on a Looper. token identifies the chain the task
// belongs to and must be passed back when the task reposts itself.
type Task func(token uint64)

type pendingTask struct {
	token uint64
	fn    Task
}

// Looper runs posted tasks one at a time on its own goroutine. Cancel
// invalidates every pending task and every delayed repost made with an
// older token, so a self-rescheduling chain stops at its next repost.
type Looper struct {
	name string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []pendingTask
	timers map[*time.Timer]struct{}
	token  uint64
	quit   bool

	done chan struct{}
	// onPanic is called with the recovered value when a task panics
	onPanic func(name string, v interface{})
}

// NewLooper starts a looper goroutine
func NewLooper(name string, onPanic func(name string, v interface{})) *Looper {
	l := &Looper{
		name:    name,
		timers:  make(map[*time.Timer]struct{}),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post queues fn under the current token
func (l *Looper) Post(fn Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.quit {
		return false
	}
	l.tasks = append(l.tasks, pendingTask{token: l.token, fn: fn})
	l.cond.Signal()
	return true
}

// Restart cancels pending work and posts fn as the start of a new chain
func (l *Looper) Restart(fn Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.quit {
		return false
	}
	l.cancelLocked()
	l.tasks = append(l.tasks, pendingTask{token: l.token, fn: fn})
	l.cond.Signal()
	return true
}

// Repost queues fn after delay if token is still current
func (l *Looper) Repost(token uint64, delay time.Duration, fn Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.quit || token != l.token {
		return false
	}
	if delay <= 0 {
		l.tasks = append(l.tasks, pendingTask{token: token, fn: fn})
		l.cond.Signal()
		return true
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.timers, t)
		if l.quit || token != l.token {
			return
		}
		l.tasks = append(l.tasks, pendingTask{token: token, fn: fn})
		l.cond.Signal()
	})
	l.timers[t] = struct{}{}
	return true
}

// Cancel drops pending tasks and timers and starts a new token
func (l *Looper) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
}

func (l *Looper) cancelLocked() {
	l.token++
	for i := range l.tasks {
		l.tasks[i] = pendingTask{}
	}
	l.tasks = l.tasks[:0]
	for t := range l.timers {
		t.Stop()
		delete(l.timers, t)
	}
}

func (l *Looper) currentToken() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}

// Quit cancels pending work and stops the goroutine once the running task
// returns. It does not wait.
func (l *Looper) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.quit {
		return
	}
	l.cancelLocked()
	l.quit = true
	l.cond.Broadcast()
}

// Done is closed when the looper goroutine has exited
func (l *Looper) Done() <-chan struct{} {
	return l.done
}

func (l *Looper) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.tasks) == 0 && !l.quit {
			l.cond.Wait()
		}
		if l.quit {
			l.mu.Unlock()
			return
		}
		t := l.tasks[0]
		l.tasks[0] = pendingTask{}
		l.tasks = l.tasks[1:]
		current := l.token
		l.mu.Unlock()

		if t.token != current {
			continue
		}
		l.runTask(t)
	}
}

func (l *Looper) runTask(t pendingTask) {
	defer func() {
		if v := recover(); v != nil && l.onPanic != nil {
			l.onPanic(l.name, v)
		}
	}()
	t.fn(t.token)
}

func (l *Looper) String() string {
	return fmt.Sprintf("looper(%s)", l.name)
}
