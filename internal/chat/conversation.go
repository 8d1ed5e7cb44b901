package chat

import (
	"sync"

	"github.com/gs52g/deskchat/internal/shared/kv"
)

const conversationsKey = "chat:conversations"

// Conversations tracks the upstream conversation id per channel so that
// multi-turn chat agents keep their context across submissions within a
// session. The map persists to the session store.
type Conversations struct {
	mu     sync.Mutex
	kv     kv.Store
	ids    map[string]string // channel key -> upstream conversation id
	loaded bool
}

// NewConversations creates a conversation map backed by the session store.
func NewConversations(store kv.Store) *Conversations {
	return &Conversations{
		kv:  store,
		ids: make(map[string]string),
	}
}

// Get returns the conversation id recorded for a channel, if any.
func (c *Conversations) Get(channel string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
	return c.ids[channel]
}

// Set records the conversation id the upstream returned for a channel.
// Empty ids are ignored so a missing field never clears the thread.
func (c *Conversations) Set(channel, conversationID string) {
	if conversationID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
	c.ids[channel] = conversationID
	_ = c.kv.Set(conversationsKey, c.ids)
}

// Reset drops a channel's conversation, starting the next turn fresh.
func (c *Conversations) Reset(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
	delete(c.ids, channel)
	_ = c.kv.Set(conversationsKey, c.ids)
}

func (c *Conversations) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true

	var stored map[string]string
	if ok, err := c.kv.Get(conversationsKey, &stored); err == nil && ok {
		c.ids = stored
	}
}
