package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/shared/kv"
)

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())
	taskID := id.NewTaskID()

	_, known := tracker.State(taskID)
	assert.False(t, known)

	tracker.Begin(taskID, "safety-bot")
	state, known := tracker.State(taskID)
	require.True(t, known)
	assert.Equal(t, TaskPending, state)

	result, first := tracker.Resolve(taskID, "**Use ear protection**")
	require.True(t, first)
	assert.Equal(t, "**Use ear protection**", result.Text)
	assert.False(t, result.IsError)

	state, known = tracker.State(taskID)
	require.True(t, known)
	assert.Equal(t, TaskResolved, state)
}

func TestTrackerResolveOnce(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())
	taskID := id.NewTaskID()
	tracker.Begin(taskID, "safety-bot")

	_, first := tracker.Resolve(taskID, "answer")
	require.True(t, first)

	_, again := tracker.Resolve(taskID, "other answer")
	assert.False(t, again)

	result, ok := tracker.Result(taskID)
	require.True(t, ok)
	assert.Equal(t, "answer", result.Text)
}

func TestTrackerResolveUnknownTask(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())

	_, ok := tracker.Resolve(id.NewTaskID(), "answer")
	assert.False(t, ok)
}

func TestTrackerErrorPrefix(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())
	taskID := id.NewTaskID()
	tracker.Begin(taskID, "safety-bot")

	result, ok := tracker.Resolve(taskID, "ERROR: 결과를 받을 수 없습니다.")
	require.True(t, ok)
	assert.True(t, result.IsError)
	assert.Equal(t, "결과를 받을 수 없습니다.", result.Text)
}

func TestTrackerResultsSurviveReload(t *testing.T) {
	mem := kv.NewMemory()
	tracker := NewTracker(mem)
	taskID := id.NewTaskID()
	tracker.Begin(taskID, "energy-news")
	_, ok := tracker.Resolve(taskID, "summary")
	require.True(t, ok)

	reloaded := NewTracker(mem)
	result, found := reloaded.Result(taskID)
	require.True(t, found)
	assert.Equal(t, "summary", result.Text)

	// Pending state is in-memory only: a reloaded tracker cannot resolve
	// a task it never began.
	_, resolved := reloaded.Resolve(taskID, "again")
	assert.False(t, resolved)
}

func TestTrackerPendingInChannel(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())

	a, b, c := id.NewTaskID(), id.NewTaskID(), id.NewTaskID()
	tracker.Begin(a, "safety-bot")
	tracker.Begin(b, "safety-bot")
	tracker.Begin(c, "energy-news")

	ids := tracker.PendingInChannel("safety-bot")
	assert.ElementsMatch(t, []id.TaskID{a, b}, ids)

	_, ok := tracker.Resolve(a, "done")
	require.True(t, ok)
	assert.ElementsMatch(t, []id.TaskID{b}, tracker.PendingInChannel("safety-bot"))
}

func TestTrackerConcurrentResolve(t *testing.T) {
	tracker := NewTracker(kv.NewMemory())
	taskID := id.NewTaskID()
	tracker.Begin(taskID, "safety-bot")

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, first := tracker.Resolve(taskID, "winner"); first {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one resolver wins")
}
