package chat

import "strings"

// DispatchKind says what a submitted message turns into.
type DispatchKind int

const (
	// DispatchNone drops the submission entirely (empty input).
	DispatchNone DispatchKind = iota

	// DispatchPlain appends the message to the log with no agent call.
	DispatchPlain

	// DispatchAgent starts an asynchronous agent call.
	DispatchAgent
)

// Dispatch is the routing decision for one submission.
type Dispatch struct {
	Kind  DispatchKind
	Agent Agent
	Query string
}

// ValidationError rejects a submission before anything is appended to
// the channel log. Message is shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func emptyQueryError(spec AgentSpec) *ValidationError {
	return &ValidationError{Message: "요청사항을 입력해주세요. 예: " + spec.Usage}
}

// Route decides how a submitted message is handled.
//
// Persona channels route everything to their bound agent, slash prefix
// or not; the command syntax only matters in ordinary channels. Unknown
// slash tokens are not an error, the message just posts as plain text.
func Route(channel ChannelSpec, text string, hasAttachment bool) (Dispatch, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && !hasAttachment {
		return Dispatch{Kind: DispatchNone}, nil
	}

	if channel.IsPersona() {
		spec, ok := Spec(channel.Persona)
		if !ok {
			return Dispatch{Kind: DispatchPlain}, nil
		}
		query := trimmed
		if cmd, rest, ok := splitCommand(trimmed); ok && cmd == spec.Command {
			query = rest
		}
		if query == "" {
			return Dispatch{}, emptyQueryError(spec)
		}
		if hasAttachment && !spec.Files {
			return Dispatch{}, &ValidationError{Message: spec.BotName + "은 이미지 첨부를 지원하지 않습니다."}
		}
		return Dispatch{Kind: DispatchAgent, Agent: spec.Agent, Query: query}, nil
	}

	cmd, rest, ok := splitCommand(trimmed)
	if !ok {
		return Dispatch{Kind: DispatchPlain}, nil
	}
	agent, known := AgentForCommand(cmd)
	if !known {
		return Dispatch{Kind: DispatchPlain}, nil
	}
	spec, _ := Spec(agent)
	if rest == "" {
		return Dispatch{}, emptyQueryError(spec)
	}
	if hasAttachment && !spec.Files {
		return Dispatch{}, &ValidationError{Message: spec.BotName + "은 이미지 첨부를 지원하지 않습니다."}
	}
	return Dispatch{Kind: DispatchAgent, Agent: agent, Query: rest}, nil
}

// splitCommand splits "/tbm some query" into the slash token and the
// trimmed remainder. Only leading slash tokens count.
func splitCommand(text string) (cmd, rest string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, rest, _ = strings.Cut(text, " ")
	return cmd, strings.TrimSpace(rest), true
}
