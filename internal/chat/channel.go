package chat

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ChannelSpec describes one channel: its identity, optional persona
// binding, and the fixture messages seeded before any user interaction.
type ChannelSpec struct {
	Key         string    `json:"key" yaml:"key"`
	Name        string    `json:"name" yaml:"name"`
	Members     int       `json:"members" yaml:"members"`
	External    int       `json:"external,omitempty" yaml:"external,omitempty"`
	Team        string    `json:"team,omitempty" yaml:"team,omitempty"`
	Persona     Agent     `json:"persona,omitempty" yaml:"persona,omitempty"`
	AlwaysFresh bool      `json:"always_fresh,omitempty" yaml:"always_fresh,omitempty"`
	Fixtures    []Message `json:"-" yaml:"fixtures"`
}

// IsPersona reports whether the channel is permanently bound to one agent.
func (c ChannelSpec) IsPersona() bool {
	return c.Persona != AgentNone
}

//go:embed fixtures/channels.yaml
var channelsYAML []byte

type channelCatalog struct {
	Channels []ChannelSpec `yaml:"channels"`
}

// DefaultChannels loads the embedded channel catalog.
func DefaultChannels() ([]ChannelSpec, error) {
	return ParseChannels(channelsYAML)
}

// ParseChannels decodes a channel catalog and validates persona bindings
// against the agent dispatch table.
func ParseChannels(data []byte) ([]ChannelSpec, error) {
	var catalog channelCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse channel catalog: %w", err)
	}

	seen := make(map[string]bool, len(catalog.Channels))
	for i := range catalog.Channels {
		ch := &catalog.Channels[i]
		if ch.Key == "" {
			return nil, fmt.Errorf("channel %d has empty key", i)
		}
		if seen[ch.Key] {
			return nil, fmt.Errorf("duplicate channel key: %s", ch.Key)
		}
		seen[ch.Key] = true

		if ch.Name == "" {
			ch.Name = ch.Key
		}
		if ch.Persona != AgentNone {
			if _, ok := Spec(ch.Persona); !ok {
				return nil, fmt.Errorf("channel %s bound to unknown agent: %s", ch.Key, ch.Persona)
			}
		}
		for j := range ch.Fixtures {
			if ch.Fixtures[j].Kind == "" {
				ch.Fixtures[j].Kind = SenderUser
			}
		}
	}

	return catalog.Channels, nil
}
