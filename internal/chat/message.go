// Package chat implements the per-session conversation engine: command
// routing, task tracking, channel message stores, and conversation
// identity for the Slack-like client.
package chat

import (
	"fmt"
	"time"

	"github.com/gs52g/deskchat/internal/shared/id"
)

// SenderKind classifies who authored a message.
type SenderKind string

const (
	SenderUser   SenderKind = "user"
	SenderBot    SenderKind = "bot"
	SenderSystem SenderKind = "system"
)

// Reaction is an emoji reaction shown on fixture messages.
type Reaction struct {
	Emoji string `json:"emoji" yaml:"emoji"`
	Count int    `json:"count" yaml:"count"`
}

// Attachment references an image attached to a user message. FileID is
// the upstream file id once uploaded; Data carries raw bytes when the
// upload still has to happen as part of the submission.
type Attachment struct {
	Name   string `json:"name" yaml:"name"`
	FileID string `json:"file_id,omitempty" yaml:"file_id,omitempty"`
	Data   []byte `json:"-" yaml:"-"`
}

// Message is one entry in a channel's ordered log.
//
// Invariant: IsLoading implies a non-empty TaskID, and at most one
// message per task id is ever in the loading state.
type Message struct {
	ID        id.MessageID `json:"id,omitempty" yaml:"-"`
	Sender    string       `json:"sender" yaml:"sender"`
	Time      string       `json:"time" yaml:"time"`
	At        time.Time    `json:"at,omitempty" yaml:"-"`
	Content   string       `json:"content" yaml:"content"`
	Avatar    string       `json:"avatar" yaml:"avatar"`
	Kind      SenderKind   `json:"kind" yaml:"kind"`
	IsUpdate  bool         `json:"is_update,omitempty" yaml:"is_update,omitempty"`
	IsLoading bool         `json:"is_loading,omitempty" yaml:"-"`
	IsError   bool         `json:"is_error,omitempty" yaml:"-"`
	TaskID    id.TaskID    `json:"task_id,omitempty" yaml:"-"`
	Reactions []Reaction   `json:"reactions,omitempty" yaml:"reactions,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty" yaml:"-"`
}

// ClockTime renders a timestamp in the client's display form ("PM 2:41").
func ClockTime(t time.Time) string {
	hours := t.Hour()
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	display := hours % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%s %d:%02d", ampm, display, t.Minute())
}
