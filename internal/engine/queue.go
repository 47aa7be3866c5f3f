package engine

import (
	"sync/atomic"

	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// itemQueue is the single shared FIFO the parallel workers drain. Dequeue is
// a non-blocking atomic try-operation: a worker never waits on another worker.
type itemQueue struct {
	items []workitem.WorkItem
	next  atomic.Int64
}

func newItemQueue(items []workitem.WorkItem) *itemQueue {
	return &itemQueue{items: items}
}

// tryNext claims the next item, or reports that the queue is drained.
func (q *itemQueue) tryNext() (workitem.WorkItem, bool) {
	idx := q.next.Add(1) - 1
	if idx >= int64(len(q.items)) {
		return workitem.WorkItem{}, false
	}
	return q.items[idx], true
}
