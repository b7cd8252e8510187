package sim

import (
	"sort"
	"sync"
)

// CommandQueue stages commands until their scheduled tick arrives. It is safe
// for concurrent producers (transport callbacks, local input) with a single
// consumer draining inside the tick loop.
//
// Commands execute tick-ascending; commands scheduled for the same tick keep
// their enqueue order. The stable ordering is a contract, not an accident:
// clients rely on e.g. select-then-move issued for one tick resolving in
// issue order.
type CommandQueue struct {
	mu      sync.Mutex
	pending []queuedCommand
	seq     uint64
	metrics queueMetrics
}

type queuedCommand struct {
	cmd Command
	seq uint64
}

type queueMetrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

const (
	commandQueueDepthMetricKey   = "sim_command_queue_depth"
	commandQueueDrainedMetricKey = "sim_command_queue_drained_total"
)

func NewCommandQueue(metrics queueMetrics) *CommandQueue {
	return &CommandQueue{metrics: metrics}
}

// Push stages a command for its scheduled tick.
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	q.pending = append(q.pending, queuedCommand{cmd: cmd, seq: q.seq})
	q.storeDepthLocked()
}

// DrainDue removes and returns every command whose tick is at or before the
// given tick, ordered by tick then enqueue order. A command scheduled in the
// future is never returned early.
func (q *CommandQueue) DrainDue(tick uint64) []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	var due []queuedCommand
	remaining := q.pending[:0]
	for _, qc := range q.pending {
		if qc.cmd.Tick <= tick {
			due = append(due, qc)
		} else {
			remaining = append(remaining, qc)
		}
	}
	q.pending = remaining
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].cmd.Tick != due[j].cmd.Tick {
			return due[i].cmd.Tick < due[j].cmd.Tick
		}
		return due[i].seq < due[j].seq
	})
	commands := make([]Command, len(due))
	for i, qc := range due {
		commands[i] = qc.cmd
	}
	if q.metrics != nil {
		q.metrics.Add(commandQueueDrainedMetricKey, uint64(len(commands)))
	}
	q.storeDepthLocked()
	return commands
}

// Len reports the number of staged commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *CommandQueue) storeDepthLocked() {
	if q.metrics == nil {
		return
	}
	q.metrics.Store(commandQueueDepthMetricKey, uint64(len(q.pending)))
}
