package scheduler

import (
	"container/heap"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrMissingHandle      = errors.New("scheduler: trigger handle is required")
	ErrDuplicateHandle    = errors.New("scheduler: duplicate trigger handle")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
)

// Trigger is a timed notification request queued on the engine.
type Trigger struct {
	Handle    string
	ChannelID string
	Title     string
	Body      string
	Data      map[string]string
	FireAt    time.Time
}

type queueItem struct {
	trigger Trigger
	seq     uint64
	index   int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].trigger.FireAt.Equal(pq[j].trigger.FireAt) {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].trigger.FireAt.Before(pq[j].trigger.FireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// Engine fires queued triggers in FireAt order on a single timer goroutine.
// Fired triggers are offered on C without blocking; when the consumer lags
// they are counted in Dropped instead.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	items   map[string]*queueItem
	seq     uint64
	out     chan Trigger
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		items:  make(map[string]*queueItem),
		out:    make(chan Trigger, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Trigger {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	if !e.started {
		close(e.out)
		e.mu.Unlock()
		return
	}
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(tr Trigger) error {
	if tr.FireAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	if strings.TrimSpace(tr.Handle) == "" {
		return ErrMissingHandle
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	if _, exists := e.items[tr.Handle]; exists {
		return ErrDuplicateHandle
	}

	e.seq++
	item := &queueItem{trigger: tr, seq: e.seq}
	heap.Push(&e.queue, item)
	e.items[tr.Handle] = item
	e.signalWakeup()
	return nil
}

// Cancel removes a queued trigger. It reports false when the handle is
// unknown, including triggers that already fired.
func (e *Engine) Cancel(handle string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.items[handle]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, item.index)
	delete(e.items, handle)
	e.signalWakeup()
	return true
}

// Pending reports how many triggers are queued and not yet fired.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.FireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now())
			for _, tr := range due {
				select {
				case e.out <- tr:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Trigger{}, false
	}
	return e.queue[0].trigger, true
}

func (e *Engine) popDue(now time.Time) []Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Trigger, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].trigger
		if next.FireAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*queueItem)
		delete(e.items, item.trigger.Handle)
		out = append(out, item.trigger)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
