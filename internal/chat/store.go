package chat

import (
	"fmt"
	"sync"

	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/shared/kv"
)

// Store owns the ordered message log of every channel in one session.
//
// On first access a channel's log is the fixture seed merged with the
// session-persisted suffix. Every mutation persists the suffix beyond
// the fixture count back to the session store; fixtures themselves are
// never re-persisted, so reloading cannot duplicate them. Channels
// marked always-fresh skip persistence entirely and reset each session.
type Store struct {
	mu       sync.RWMutex
	kv       kv.Store
	specs    map[string]ChannelSpec
	order    []string
	messages map[string][]Message
}

// NewStore creates a message store over the given channel catalog.
func NewStore(specs []ChannelSpec, store kv.Store) *Store {
	s := &Store{
		kv:       store,
		specs:    make(map[string]ChannelSpec, len(specs)),
		order:    make([]string, 0, len(specs)),
		messages: make(map[string][]Message),
	}
	for _, spec := range specs {
		s.specs[spec.Key] = spec
		s.order = append(s.order, spec.Key)
	}
	return s
}

// Channels returns the channel catalog in declaration order.
func (s *Store) Channels() []ChannelSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ChannelSpec, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.specs[key])
	}
	return out
}

// Spec returns the channel spec for key.
func (s *Store) Spec(key string) (ChannelSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.specs[key]
	return spec, ok
}

// Messages returns a copy of the channel's current log, loading and
// merging the persisted suffix on first access.
func (s *Store) Messages(key string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.loadLocked(key)
	if err != nil {
		return nil, err
	}

	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds a message to the channel's log and persists the suffix.
func (s *Store) Append(key string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.loadLocked(key)
	if err != nil {
		return err
	}

	s.messages[key] = append(msgs, msg)
	return s.persistLocked(key)
}

// MutateByTask applies fn to the message carrying taskID, replacing the
// whole list copy-on-write. fn reports whether it changed the message;
// unchanged or missing task ids leave the log and the persisted suffix
// untouched. The updated message copy is returned on success.
func (s *Store) MutateByTask(key string, taskID id.TaskID, fn func(*Message) bool) (Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.loadLocked(key)
	if err != nil {
		return Message{}, false, err
	}

	for i := range msgs {
		if msgs[i].TaskID != taskID {
			continue
		}

		next := make([]Message, len(msgs))
		copy(next, msgs)
		if !fn(&next[i]) {
			return Message{}, false, nil
		}

		s.messages[key] = next
		if err := s.persistLocked(key); err != nil {
			return Message{}, false, err
		}
		return next[i], true, nil
	}

	return Message{}, false, nil
}

// Reset drops a channel back to its fixture seed and deletes the
// persisted suffix.
func (s *Store) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, ok := s.specs[key]
	if !ok {
		return fmt.Errorf("unknown channel: %s", key)
	}

	s.messages[key] = cloneMessages(spec.Fixtures)
	s.kv.Delete(suffixKey(key))
	return nil
}

// loadLocked merges fixtures with the persisted suffix. Caller holds mu.
func (s *Store) loadLocked(key string) ([]Message, error) {
	if msgs, ok := s.messages[key]; ok {
		return msgs, nil
	}

	spec, ok := s.specs[key]
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", key)
	}

	msgs := cloneMessages(spec.Fixtures)
	if !spec.AlwaysFresh {
		var suffix []Message
		if _, err := s.kv.Get(suffixKey(key), &suffix); err != nil {
			// Corrupt cache entries are dropped, not fatal.
			s.kv.Delete(suffixKey(key))
		} else {
			msgs = append(msgs, suffix...)
		}
	}

	s.messages[key] = msgs
	return msgs, nil
}

// persistLocked writes the non-fixture suffix back. Caller holds mu.
func (s *Store) persistLocked(key string) error {
	spec := s.specs[key]
	if spec.AlwaysFresh {
		return nil
	}

	msgs := s.messages[key]
	suffix := msgs[len(spec.Fixtures):]
	return s.kv.Set(suffixKey(key), suffix)
}

func suffixKey(channel string) string {
	return "channel:" + channel
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
