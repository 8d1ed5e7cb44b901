package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/shared/kv"
)

func testChannels() []ChannelSpec {
	return []ChannelSpec{
		{
			Key:  "general",
			Name: "general",
			Fixtures: []Message{
				{Sender: "Alice", Time: "AM 9:00", Content: "welcome", Kind: SenderUser},
				{Sender: "Bob", Time: "AM 9:05", Content: "hello", Kind: SenderUser},
			},
		},
		{
			Key:         "bot-room",
			Name:        "bot-room",
			Persona:     AgentTBM,
			AlwaysFresh: true,
			Fixtures: []Message{
				{Sender: "안젠봇", Time: "AM 9:00", Content: "greeting", Kind: SenderBot},
			},
		},
	}
}

func TestStoreMessagesStartWithFixtures(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	msgs, err := store.Messages("general")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "welcome", msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestStoreUnknownChannel(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	_, err := store.Messages("nope")
	assert.Error(t, err)

	err = store.Append("nope", Message{Content: "x"})
	assert.Error(t, err)
}

func TestStoreAppendPersistsSuffix(t *testing.T) {
	mem := kv.NewMemory()
	store := NewStore(testChannels(), mem)

	require.NoError(t, store.Append("general", Message{Sender: "Carol", Content: "new", Kind: SenderUser}))

	// A fresh store over the same kv sees fixtures plus the suffix,
	// with no duplicated fixtures.
	reloaded := NewStore(testChannels(), mem)
	msgs, err := reloaded.Messages("general")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "new", msgs[2].Content)
}

func TestStoreAlwaysFreshSkipsPersistence(t *testing.T) {
	mem := kv.NewMemory()
	store := NewStore(testChannels(), mem)

	require.NoError(t, store.Append("bot-room", Message{Sender: "me", Content: "/tbm work", Kind: SenderUser}))

	msgs, err := store.Messages("bot-room")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	reloaded := NewStore(testChannels(), mem)
	msgs, err = reloaded.Messages("bot-room")
	require.NoError(t, err)
	require.Len(t, msgs, 1, "fresh channels reset to fixtures")
	assert.Equal(t, "greeting", msgs[0].Content)
}

func TestStoreMutateByTask(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	taskID := id.NewTaskID()
	require.NoError(t, store.Append("general", Message{
		Sender:    "안젠봇",
		Content:   "loading",
		Kind:      SenderBot,
		IsLoading: true,
		TaskID:    taskID,
	}))

	updated, ok, err := store.MutateByTask("general", taskID, func(m *Message) bool {
		if !m.IsLoading {
			return false
		}
		m.IsLoading = false
		m.Content = "done"
		return true
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "done", updated.Content)
	assert.False(t, updated.IsLoading)

	// Second pass finds the message resolved and declines to change it.
	_, ok, err = store.MutateByTask("general", taskID, func(m *Message) bool {
		if !m.IsLoading {
			return false
		}
		m.Content = "twice"
		return true
	})
	require.NoError(t, err)
	assert.False(t, ok)

	msgs, err := store.Messages("general")
	require.NoError(t, err)
	assert.Equal(t, "done", msgs[len(msgs)-1].Content)
}

func TestStoreMutateByTaskMissing(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	_, ok, err := store.MutateByTask("general", id.NewTaskID(), func(m *Message) bool {
		m.Content = "x"
		return true
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	msgs, err := store.Messages("general")
	require.NoError(t, err)
	msgs[0].Content = "mutated"

	again, err := store.Messages("general")
	require.NoError(t, err)
	assert.Equal(t, "welcome", again[0].Content)
}

func TestStoreReset(t *testing.T) {
	mem := kv.NewMemory()
	store := NewStore(testChannels(), mem)

	require.NoError(t, store.Append("general", Message{Sender: "Carol", Content: "extra", Kind: SenderUser}))
	require.NoError(t, store.Reset("general"))

	msgs, err := store.Messages("general")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	reloaded := NewStore(testChannels(), mem)
	msgs, err = reloaded.Messages("general")
	require.NoError(t, err)
	assert.Len(t, msgs, 2, "reset also clears the persisted suffix")
}

func TestStoreChannelsOrder(t *testing.T) {
	store := NewStore(testChannels(), kv.NewMemory())

	chans := store.Channels()
	require.Len(t, chans, 2)
	assert.Equal(t, "general", chans[0].Key)
	assert.Equal(t, "bot-room", chans[1].Key)
}
