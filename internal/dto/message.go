// Package dto holds the messages written to WebSocket clients.
package dto

import (
	"pixel-board/internal/domain"
	"pixel-board/internal/editor"
	"pixel-board/internal/service"
)

// Server message types.
const (
	TypeState   = "state"   // full grid, sent on connect and after whole-grid changes
	TypeChange  = "change"  // cells changed by one command
	TypeUndo    = "undo"    // ok reports whether anything was undone
	TypeContext = "context" // drawing context after a context command
	TypeSaved   = "saved"
	TypeLoaded  = "loaded" // ok is false when nothing was saved
	TypeError   = "error"
)

// ServerMessage is one message to a client. Only the fields of its type
// are set.
type ServerMessage struct {
	Type    string                 `json:"type"`
	State   *service.BoardState    `json:"state,omitempty"`
	Change  *editor.Change         `json:"change,omitempty"`
	Context *domain.DrawingContext `json:"context,omitempty"`
	OK      *bool                  `json:"ok,omitempty"`
	Version uint                   `json:"version,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// NewError builds an error message.
func NewError(message string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: message}
}

// NewState builds a full state message.
func NewState(state *service.BoardState) ServerMessage {
	return ServerMessage{Type: TypeState, State: state, Version: state.Version}
}
