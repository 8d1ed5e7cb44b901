package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/infrastructure/logging"
	"github.com/gs52g/deskchat/internal/infrastructure/monitoring"
	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/upstream"
)

// loadingContent is the placeholder shown while an agent call is in flight.
const loadingContent = "답변을 준비하고 있습니다..."

// Caller is the upstream surface the engine needs. *upstream.Client
// satisfies it; tests substitute fakes.
type Caller interface {
	Chat(ctx context.Context, apiKey string, req upstream.ChatRequest) (*upstream.ChatResult, error)
	RunWorkflow(ctx context.Context, apiKey, query string) (string, error)
	UploadFile(ctx context.Context, apiKey, filename string, file io.Reader, user string) (string, error)
}

// Sink receives engine events for live delivery to the client. All
// methods are called from engine goroutines and must not block long.
type Sink interface {
	MessageAppended(channel string, msg Message)
	StreamDelta(channel string, taskID id.TaskID, text string, done bool)
	TaskResolved(channel string, msg Message)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) MessageAppended(string, Message)             {}
func (NopSink) StreamDelta(string, id.TaskID, string, bool) {}
func (NopSink) TaskResolved(string, Message)                {}

// Credentials holds the per-agent upstream API keys plus the shared
// file upload key.
type Credentials struct {
	TBM        string
	EnergyNews string
	DesignRisk string
	Upload     string
}

func (c Credentials) forAgent(agent Agent) string {
	switch agent {
	case AgentTBM:
		return c.TBM
	case AgentEnergyNews:
		return c.EnergyNews
	case AgentDesignRisk:
		return c.DesignRisk
	}
	return ""
}

// StreamOptions paces the chunked reveal of workflow results.
type StreamOptions struct {
	ChunkRunes int
	Delay      time.Duration
}

// EngineOptions configures a session engine.
type EngineOptions struct {
	Store         *Store
	Tracker       *Tracker
	Conversations *Conversations
	Caller        Caller
	Credentials   Credentials
	Stream        StreamOptions
	Logger        *logging.Logger
	Metrics       *monitoring.Metrics
	UserName      string
	UserAvatar    string
	Clock         func() time.Time
}

// Engine drives one session's chat: it routes submissions, appends
// messages, runs agent calls asynchronously, and resolves their results
// back into the channel logs exactly once.
type Engine struct {
	store   *Store
	tracker *Tracker
	convs   *Conversations
	caller  Caller
	creds   Credentials
	stream  StreamOptions
	log     *logging.Logger
	metrics *monitoring.Metrics

	userName   string
	userAvatar string
	clock      func() time.Time

	mu   sync.RWMutex
	sink Sink

	wg sync.WaitGroup
}

// NewEngine assembles an engine from its parts, applying defaults for
// anything left zero.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		store:      opts.Store,
		tracker:    opts.Tracker,
		convs:      opts.Conversations,
		caller:     opts.Caller,
		creds:      opts.Credentials,
		stream:     opts.Stream,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		userName:   opts.UserName,
		userAvatar: opts.UserAvatar,
		clock:      opts.Clock,
		sink:       NopSink{},
	}
	if e.log == nil {
		e.log = logging.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.userName == "" {
		e.userName = "Sungeun Im"
	}
	if e.userAvatar == "" {
		e.userAvatar = "/assets/mini_ally_default.jpg"
	}
	if e.stream.ChunkRunes <= 0 {
		e.stream.ChunkRunes = 12
	}
	return e
}

// SetSink attaches the live event sink. Passing nil detaches it.
func (e *Engine) SetSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == nil {
		s = NopSink{}
	}
	e.sink = s
}

// ClearSink detaches s only if it is still the active sink. A stale
// connection tearing down after a reconnect must not silence the sink
// the newer connection installed.
func (e *Engine) ClearSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sink == s {
		e.sink = NopSink{}
	}
}

func (e *Engine) currentSink() Sink {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sink
}

// Channels returns the session's channel catalog.
func (e *Engine) Channels() []ChannelSpec {
	return e.store.Channels()
}

// Messages returns the current log of a channel without reconciling.
func (e *Engine) Messages(channel string) ([]Message, error) {
	return e.store.Messages(channel)
}

// Submit handles one user submission. The user message (and, for agent
// dispatches, a loading placeholder) is appended synchronously; the
// agent call itself runs in the background. A *ValidationError return
// means nothing was appended.
func (e *Engine) Submit(channelKey, text string, attachments []Attachment) (Message, error) {
	channel, ok := e.store.Spec(channelKey)
	if !ok {
		return Message{}, errors.New("unknown channel: " + channelKey)
	}

	dispatch, err := Route(channel, text, len(attachments) > 0)
	if err != nil {
		return Message{}, err
	}
	if dispatch.Kind == DispatchNone {
		return Message{}, nil
	}

	now := e.clock()
	userMsg := Message{
		ID:          id.NewMessageID(),
		Sender:      e.userName,
		Time:        ClockTime(now),
		At:          now,
		Content:     strings.TrimSpace(text),
		Avatar:      e.userAvatar,
		Kind:        SenderUser,
		Attachments: attachments,
	}
	if err := e.store.Append(channelKey, userMsg); err != nil {
		return Message{}, err
	}
	e.currentSink().MessageAppended(channelKey, userMsg)

	if dispatch.Kind != DispatchAgent {
		return userMsg, nil
	}

	spec, _ := Spec(dispatch.Agent)
	taskID := id.NewTaskID()
	placeholder := Message{
		ID:        id.NewMessageID(),
		Sender:    spec.BotName,
		Time:      ClockTime(now),
		At:        now,
		Content:   loadingContent,
		Avatar:    spec.Avatar,
		Kind:      SenderBot,
		IsLoading: true,
		TaskID:    taskID,
	}
	if err := e.store.Append(channelKey, placeholder); err != nil {
		return Message{}, err
	}
	e.currentSink().MessageAppended(channelKey, placeholder)

	e.tracker.Begin(taskID, channelKey)
	if e.metrics != nil {
		e.metrics.TaskStarted()
	}

	e.wg.Add(1)
	go e.run(channelKey, spec, dispatch.Query, attachments, taskID)

	return userMsg, nil
}

// run executes the agent call and resolves the task. Always resolves:
// failures resolve with the error sentinel so no placeholder spins
// forever.
func (e *Engine) run(channel string, spec AgentSpec, query string, attachments []Attachment, taskID id.TaskID) {
	defer e.wg.Done()

	start := time.Now()
	text, callErr := e.call(context.Background(), channel, spec, query, attachments)

	outcome := "ok"
	if callErr != nil {
		outcome = "error"
		text = ErrorPrefix + " " + errorText(callErr)
		e.log.Warn("agent call failed",
			zap.String("agent", string(spec.Agent)),
			zap.String("channel", channel),
			zap.Error(callErr),
		)
	}
	if e.metrics != nil {
		e.metrics.RecordUpstreamCall(string(spec.Agent), callKindLabel(spec.Call), outcome, time.Since(start))
	}

	e.resolveTask(channel, spec, taskID, text)
}

// call performs the upstream request for one dispatch.
func (e *Engine) call(ctx context.Context, channel string, spec AgentSpec, query string, attachments []Attachment) (string, error) {
	apiKey := e.creds.forAgent(spec.Agent)

	if spec.Call == CallWorkflow {
		return e.caller.RunWorkflow(ctx, apiKey, query)
	}

	var files []upstream.FileRef
	for _, att := range attachments {
		fileID := att.FileID
		if fileID == "" {
			uploaded, err := e.caller.UploadFile(ctx, e.creds.Upload, att.Name, bytes.NewReader(att.Data), "")
			if err != nil {
				return "", err
			}
			fileID = uploaded
		}
		files = append(files, upstream.FileRef{
			Type:           "image",
			TransferMethod: "local_file",
			UploadFileID:   fileID,
		})
	}

	result, err := e.caller.Chat(ctx, apiKey, upstream.ChatRequest{
		Query:          query,
		ConversationID: e.convs.Get(channel),
		Files:          files,
	})
	if err != nil {
		return "", err
	}
	e.convs.Set(channel, result.ConversationID)
	return result.Answer, nil
}

// resolveTask records the outcome and replaces the loading placeholder.
// Streaming agents reveal the text in paced chunks before finalizing.
func (e *Engine) resolveTask(channel string, spec AgentSpec, taskID id.TaskID, text string) {
	result, first := e.tracker.Resolve(taskID, text)
	if !first {
		return
	}
	if e.metrics != nil {
		outcome := "ok"
		if result.IsError {
			outcome = "error"
		}
		e.metrics.TaskFinished(outcome)
	}

	if spec.Stream && !result.IsError {
		e.reveal(channel, taskID, result.Text)
	}
	e.finalize(channel, taskID, result)
}

// reveal streams the result into the placeholder chunk by chunk. The
// message stays in the loading state until finalize.
func (e *Engine) reveal(channel string, taskID id.TaskID, text string) {
	runes := []rune(text)
	sink := e.currentSink()

	for pos := 0; pos < len(runes); pos += e.stream.ChunkRunes {
		end := pos + e.stream.ChunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		shown := string(runes[:end])

		_, ok, err := e.store.MutateByTask(channel, taskID, func(m *Message) bool {
			if !m.IsLoading {
				return false
			}
			m.Content = shown
			return true
		})
		if err != nil || !ok {
			return
		}
		sink.StreamDelta(channel, taskID, shown, end == len(runes))

		if end < len(runes) && e.stream.Delay > 0 {
			time.Sleep(e.stream.Delay)
		}
	}
}

// finalize writes the terminal state of the placeholder and notifies
// the sink. No-op if the message already left the loading state.
func (e *Engine) finalize(channel string, taskID id.TaskID, result TaskResult) {
	msg, ok, err := e.store.MutateByTask(channel, taskID, func(m *Message) bool {
		if !m.IsLoading {
			return false
		}
		m.IsLoading = false
		m.Content = result.Text
		m.IsError = result.IsError
		return true
	})
	if err != nil {
		e.log.Warn("failed to finalize task message",
			zap.String("channel", channel),
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
		return
	}
	if ok {
		e.currentSink().TaskResolved(channel, msg)
	}
}

// Switch is the channel-open path: it reconciles any message still
// loading against the result map, then returns the reconciled log.
// Results that arrived while the client was elsewhere land here.
func (e *Engine) Switch(channel string) ([]Message, error) {
	msgs, err := e.store.Messages(channel)
	if err != nil {
		return nil, err
	}

	for _, msg := range msgs {
		if !msg.IsLoading || msg.TaskID == "" {
			continue
		}
		result, done := e.tracker.Result(msg.TaskID)
		if !done {
			continue
		}
		e.finalize(channel, msg.TaskID, result)
	}

	return e.store.Messages(channel)
}

// Reset drops a channel to its fixtures and forgets its conversation.
func (e *Engine) Reset(channel string) error {
	if err := e.store.Reset(channel); err != nil {
		return err
	}
	e.convs.Reset(channel)
	return nil
}

// Drain blocks until all in-flight agent calls have resolved.
func (e *Engine) Drain() {
	e.wg.Wait()
}

// errorText picks the user-facing text for a failed call. Upstream API
// errors carry a localized detail; anything else falls back to the
// error string (the empty-answer and upload sentinels are already
// user-facing Korean).
func errorText(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

func callKindLabel(kind CallKind) string {
	if kind == CallWorkflow {
		return "workflow"
	}
	return "chat"
}
