package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gs52g/deskchat/internal/shared/kv"
)

func TestConversationsRoundTrip(t *testing.T) {
	mem := kv.NewMemory()
	convs := NewConversations(mem)

	assert.Empty(t, convs.Get("safety-bot"))

	convs.Set("safety-bot", "conv-123")
	assert.Equal(t, "conv-123", convs.Get("safety-bot"))

	// Persists across a reload within the session.
	reloaded := NewConversations(mem)
	assert.Equal(t, "conv-123", reloaded.Get("safety-bot"))
}

func TestConversationsEmptyIDIgnored(t *testing.T) {
	convs := NewConversations(kv.NewMemory())

	convs.Set("safety-bot", "conv-123")
	convs.Set("safety-bot", "")
	assert.Equal(t, "conv-123", convs.Get("safety-bot"))
}

func TestConversationsReset(t *testing.T) {
	mem := kv.NewMemory()
	convs := NewConversations(mem)

	convs.Set("design-risk", "conv-9")
	convs.Reset("design-risk")
	assert.Empty(t, convs.Get("design-risk"))

	reloaded := NewConversations(mem)
	assert.Empty(t, reloaded.Get("design-risk"))
}
