package scheduler

import (
	"time"
)

// Job is a scheduled unit of work. Index tracks the heap slot so that
// cancellation by id stays O(log n).
type Job[T any] struct {
	ID      string
	Index   int
	Value   T
	ReadyAt time.Time
}

type jobHeap[T any] struct {
	jobs []*Job[T]
}

func (h jobHeap[T]) Peek() *Job[T] {
	if h.Len() == 0 {
		return nil
	}
	return h.jobs[0]
}

func (h jobHeap[T]) Len() int { return len(h.jobs) }

func (h jobHeap[T]) less(i, j int) bool {
	return h.jobs[i].ReadyAt.Before(h.jobs[j].ReadyAt)
}

func (h jobHeap[T]) swap(i, j int) {
	h.jobs[i], h.jobs[j] = h.jobs[j], h.jobs[i]
	h.jobs[i].Index = i
	h.jobs[j].Index = j
}

func (h *jobHeap[T]) Push(job *Job[T]) {
	job.Index = len(h.jobs)
	h.jobs = append(h.jobs, job)
	h.siftUp(job.Index)
}

func (h *jobHeap[T]) Pop() *Job[T] {
	n := h.Len()
	if n == 0 {
		return nil
	}

	h.swap(0, n-1)
	next := h.jobs[n-1]
	h.jobs[n-1] = nil
	h.jobs = h.jobs[:n-1]
	next.Index = -1
	if len(h.jobs) > 0 {
		h.siftDown(0)
	}

	return next
}

func (h *jobHeap[T]) Remove(index int) *Job[T] {
	n := h.Len()
	if index < 0 || index >= n {
		return nil
	}

	h.swap(index, n-1)
	removed := h.jobs[n-1]
	h.jobs[n-1] = nil
	h.jobs = h.jobs[:n-1]
	removed.Index = -1
	if index < len(h.jobs) {
		if !h.siftDown(index) {
			h.siftUp(index)
		}
	}
	return removed
}

func (h *jobHeap[T]) siftUp(index int) {
	for index > 0 {
		parent := (index - 1) / 2
		if !h.less(index, parent) {
			return
		}
		h.swap(index, parent)
		index = parent
	}
}

func (h *jobHeap[T]) siftDown(index int) bool {
	moved := false
	n := h.Len()

	for {
		left := 2*index + 1
		if left >= n {
			break
		}
		smallest := left
		if right := left + 1; right < n && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, index) {
			break
		}
		h.swap(index, smallest)
		index = smallest
		moved = true
	}

	return moved
}
