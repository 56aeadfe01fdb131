package cp

import "container/heap"

// readyFrontier is a first-fail priority queue over tasks whose precedence
// predecessor has already been assigned in the current branch: the next
// variable branched on is always the ready task with the smallest employee
// domain, ties broken by task index (spec.md §4.4, "branching prioritizes
// taskAssignee[·] by first-fail"). Modeled on the teacher's
// OptimizedPriorityQueue, a container/heap-backed binary heap keyed by a
// mutable priority (pkg/scheduler/optimized_scheduler.go in the teacher
// retrieval).
type readyFrontier struct {
	items      []int
	domainSize []int // shared with the search, indexed by task idx
}

func newReadyFrontier(domainSize []int) *readyFrontier {
	return &readyFrontier{domainSize: domainSize}
}

func (f *readyFrontier) Len() int { return len(f.items) }

func (f *readyFrontier) Less(i, j int) bool {
	di, dj := f.domainSize[f.items[i]], f.domainSize[f.items[j]]
	if di != dj {
		return di < dj
	}
	return f.items[i] < f.items[j]
}

func (f *readyFrontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *readyFrontier) Push(x any) { f.items = append(f.items, x.(int)) }

func (f *readyFrontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	f.items = old[:n-1]
	return item
}

func (f *readyFrontier) pushTask(taskIdx int) { heap.Push(f, taskIdx) }

func (f *readyFrontier) popTask() int { return heap.Pop(f).(int) }

// clone returns an independent copy sharing the same domainSize slice (read
// only) but with its own items backing array, so a child branch can mutate
// its frontier without disturbing the parent's.
func (f *readyFrontier) clone() *readyFrontier {
	items := make([]int, len(f.items))
	copy(items, f.items)
	return &readyFrontier{items: items, domainSize: f.domainSize}
}
