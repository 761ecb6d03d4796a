package scheduler

import (
	"sync"
	"time"

	svcerror "pedidos-saga/pkg/error"
)

// Scheduler hands back jobs on C() once their delay elapses. Scheduling the
// same id again replaces the pending job, Cancel drops it. Used for deferred
// payment processing and compensation retries.
type Scheduler[T any] struct {
	mu     sync.Mutex
	heap   jobHeap[T]
	byID   map[string]*Job[T]
	out    chan Job[T]
	wakeUp chan struct{}
	quit   chan struct{}
	closed bool
}

func New[T any](outBuf int) *Scheduler[T] {
	s := &Scheduler[T]{
		byID:   make(map[string]*Job[T]),
		out:    make(chan Job[T], outBuf),
		wakeUp: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// C is the delivery channel. It closes after Close; due jobs are drained as
// long as a consumer keeps receiving and dropped once delivery blocks.
func (s *Scheduler[T]) C() <-chan Job[T] { return s.out }

func (s *Scheduler[T]) Schedule(id string, value T, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return svcerror.New(
			svcerror.ErrInternalError,
			svcerror.WithOp("Scheduler.Schedule"),
			svcerror.WithMsg("scheduler is closed"),
			svcerror.WithTime(time.Now().UTC()),
		)
	}

	if old := s.byID[id]; old != nil {
		s.heap.Remove(old.Index)
		delete(s.byID, id)
	}

	job := &Job[T]{ID: id, Value: value, ReadyAt: time.Now().Add(delay)}
	s.heap.Push(job)
	s.byID[id] = job

	s.notify()
	return nil
}

func (s *Scheduler[T]) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.byID[id]
	if job == nil {
		return false
	}
	s.heap.Remove(job.Index)
	delete(s.byID, id)

	s.notify()
	return true
}

func (s *Scheduler[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.quit)
	s.notify()
}

func (s *Scheduler[T]) notify() {
	select {
	case s.wakeUp <- struct{}{}:
	default:
	}
}

func (s *Scheduler[T]) loop() {
	var timer *time.Timer

	for {
		empty, closed, next := s.state()

		if closed && empty {
			close(s.out)
			return
		}

		if empty {
			<-s.wakeUp
			continue
		}

		delay := time.Until(next)
		if delay <= 0 {
			if !s.popReady() {
				close(s.out)
				return
			}
			continue
		}

		timer = resetTimer(timer, delay)

		select {
		case <-timer.C:
		case <-s.wakeUp:
			stopTimer(timer)
		}
	}
}

func (s *Scheduler[T]) state() (empty, closed bool, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	empty = s.heap.Len() == 0
	closed = s.closed
	if !empty {
		next = s.heap.Peek().ReadyAt
	}
	return
}

// popReady hands out every job that is due. It reports false when a blocked
// delivery was abandoned because the scheduler closed, so the loop can stop
// instead of waiting on a consumer that is gone.
func (s *Scheduler[T]) popReady() bool {
	now := time.Now()
	for {
		s.mu.Lock()
		head := s.heap.Peek()
		if head == nil || head.ReadyAt.After(now) {
			s.mu.Unlock()
			return true
		}
		job := s.heap.Pop()
		delete(s.byID, job.ID)
		s.mu.Unlock()

		select {
		case s.out <- *job:
		default:
			select {
			case s.out <- *job:
			case <-s.quit:
				return false
			}
		}
	}
}

func resetTimer(timer *time.Timer, delay time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(delay)
	}
	stopTimer(timer)
	timer.Reset(delay)
	return timer
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
