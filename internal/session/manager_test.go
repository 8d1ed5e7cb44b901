package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs52g/deskchat/internal/chat"
	"github.com/gs52g/deskchat/internal/upstream"
)

type stubCaller struct{}

func (stubCaller) Chat(context.Context, string, upstream.ChatRequest) (*upstream.ChatResult, error) {
	return &upstream.ChatResult{Answer: "ok"}, nil
}

func (stubCaller) RunWorkflow(context.Context, string, string) (string, error) {
	return "ok", nil
}

func (stubCaller) UploadFile(context.Context, string, string, io.Reader, string) (string, error) {
	return "file-1", nil
}

func testConfig() Config {
	return Config{
		Channels: []chat.ChannelSpec{
			{Key: "general", Name: "general"},
			{Key: "safety", Name: "safety", Persona: chat.AgentTBM, AlwaysFresh: true},
		},
		Caller: stubCaller{},
		TTL:    time.Hour,
	}
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(testConfig())

	sess := m.Create()
	require.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Engine)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestManagerGetUnknown(t *testing.T) {
	m := NewManager(testConfig())
	m.Create()

	_, err := m.Get("sess_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := NewManager(testConfig())

	a := m.Create()
	b := m.Create()

	_, err := a.Engine.Submit("general", "only in a", nil)
	require.NoError(t, err)

	msgsA, err := a.Engine.Messages("general")
	require.NoError(t, err)
	msgsB, err := b.Engine.Messages("general")
	require.NoError(t, err)
	assert.Len(t, msgsA, 1)
	assert.Empty(t, msgsB)
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(testConfig())
	sess := m.Create()

	m.Remove(sess.ID)
	assert.Equal(t, 0, m.Count())

	_, err := m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSweepExpiresIdleSessions(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = 10 * time.Millisecond
	m := NewManager(cfg)

	old := m.Create()
	time.Sleep(25 * time.Millisecond)
	fresh := m.Create()

	m.sweep()

	_, err := m.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestManagerGetRefreshesTTL(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = 40 * time.Millisecond
	m := NewManager(cfg)

	sess := m.Create()
	time.Sleep(25 * time.Millisecond)
	_, err := m.Get(sess.ID)
	require.NoError(t, err)
	time.Sleep(25 * time.Millisecond)

	m.sweep()
	_, err = m.Get(sess.ID)
	assert.NoError(t, err, "recently touched sessions survive the sweep")
}
