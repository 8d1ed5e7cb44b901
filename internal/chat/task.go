package chat

import (
	"strings"
	"sync"

	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/shared/kv"
)

// ErrorPrefix marks a resolved result as a failure. The prefix never
// reaches the client: display strips it and flags the message instead.
const ErrorPrefix = "ERROR:"

const resultsKey = "tasks:results"

// TaskState is the lifecycle position of an agent call.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskResolved
)

// TaskResult is the outcome of a finished agent call, kept in the
// session result map so a channel revisit can reconcile messages that
// were still loading when the client navigated away.
type TaskResult struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// Tracker records in-flight agent calls and their outcomes.
//
// Resolve is idempotent: the first call wins, later calls for the same
// task id are no-ops. Outcomes persist to the session store so they
// survive engine reloads within a session.
type Tracker struct {
	mu      sync.Mutex
	kv      kv.Store
	pending map[id.TaskID]string // task id -> channel key
	results map[id.TaskID]TaskResult
	loaded  bool
}

// NewTracker creates a tracker backed by the session store.
func NewTracker(store kv.Store) *Tracker {
	return &Tracker{
		kv:      store,
		pending: make(map[id.TaskID]string),
		results: make(map[id.TaskID]TaskResult),
	}
}

// Begin registers a new in-flight task bound to a channel.
func (t *Tracker) Begin(taskID id.TaskID, channel string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()
	t.pending[taskID] = channel
}

// Resolve records the task's outcome. It reports whether this call was
// the one that resolved the task; a task already resolved or never
// begun resolves nobody.
func (t *Tracker) Resolve(taskID id.TaskID, text string) (TaskResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()
	if _, ok := t.pending[taskID]; !ok {
		return TaskResult{}, false
	}
	delete(t.pending, taskID)

	result := TaskResult{Text: text}
	if rest, ok := strings.CutPrefix(text, ErrorPrefix); ok {
		result = TaskResult{Text: strings.TrimSpace(rest), IsError: true}
	}
	t.results[taskID] = result
	t.persistLocked()
	return result, true
}

// Result looks up the outcome of a finished task.
func (t *Tracker) Result(taskID id.TaskID) (TaskResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()
	result, ok := t.results[taskID]
	return result, ok
}

// State reports where a task is in its lifecycle.
func (t *Tracker) State(taskID id.TaskID) (TaskState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()
	if _, ok := t.pending[taskID]; ok {
		return TaskPending, true
	}
	if _, ok := t.results[taskID]; ok {
		return TaskResolved, true
	}
	return 0, false
}

// PendingInChannel returns the ids of tasks still in flight for a channel.
func (t *Tracker) PendingInChannel(channel string) []id.TaskID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()
	var ids []id.TaskID
	for taskID, ch := range t.pending {
		if ch == channel {
			ids = append(ids, taskID)
		}
	}
	return ids
}

// loadLocked restores the persisted result map once. Caller holds mu.
func (t *Tracker) loadLocked() {
	if t.loaded {
		return
	}
	t.loaded = true

	var stored map[id.TaskID]TaskResult
	if ok, err := t.kv.Get(resultsKey, &stored); err == nil && ok {
		t.results = stored
	}
}

// persistLocked writes the result map back. Caller holds mu.
func (t *Tracker) persistLocked() {
	// Best effort: a failed write only loses cross-reload reconciliation.
	_ = t.kv.Set(resultsKey, t.results)
}
