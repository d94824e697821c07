package model

import (
	"net/http"
	"strings"

	errx "github.com/zus-planner-poc/server/internal/core/error"
)

// Role tags a message with its author within the conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is a single role-tagged turn in the conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ActionType classifies planner actions reported back to the caller.
type ActionType string

const (
	ActionDecision   ActionType = "decision"
	ActionToolCall   ActionType = "tool_call"
	ActionToolResult ActionType = "tool_result"
)

// ActionStatus is the outcome of a planner action.
type ActionStatus string

const (
	StatusSuccess ActionStatus = "success"
	StatusError   ActionStatus = "error"
)

// ToolAction describes one planner action performed during a turn.
type ToolAction struct {
	Type    ActionType     `json:"type"`
	Tool    string         `json:"tool,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Status  ActionStatus   `json:"status,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
}

// TurnRequest is the caller-facing input for a single turn.
type TurnRequest struct {
	SessionID string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
}

// Validate enforces the caller contract before any planner work begins.
func (r *TurnRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return errx.New(nil, http.StatusUnprocessableEntity, "sessionId is required")
	}
	if len(r.Messages) == 0 {
		return errx.New(nil, http.StatusUnprocessableEntity, "at least one user message is required")
	}
	for _, msg := range r.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			return errx.New(nil, http.StatusUnprocessableEntity, "message content cannot be empty")
		}
		switch msg.Role {
		case RoleUser, RoleAssistant, RoleTool:
		default:
			return errx.New(nil, http.StatusUnprocessableEntity, "unknown message role")
		}
	}
	if r.Messages[len(r.Messages)-1].Role != RoleUser {
		return errx.New(nil, http.StatusUnprocessableEntity, "last message in the request must come from the user")
	}
	return nil
}

// TurnResult is returned to the caller after a completed turn.
type TurnResult struct {
	Response ChatMessage  `json:"response"`
	Actions  []ToolAction `json:"actions"`
	Memory   *ChatState   `json:"memory"`
}
