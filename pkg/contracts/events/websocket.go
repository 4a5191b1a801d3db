// Package events defines the messages streamed to websocket clients while a
// validation run progresses.
package events

import "nexusprep/pkg/contracts/domain"

// MessageType identifies a websocket message
type MessageType string

const (
	// MessageTypeConnection greets a newly registered client.
	MessageTypeConnection MessageType = "connection"

	MessageTypeValidationStarted  MessageType = "validation:started"
	MessageTypeStageProgress      MessageType = "validation:progress"
	MessageTypeValidationComplete MessageType = "validation:complete"
	MessageTypeValidationError    MessageType = "validation:error"
)

// Message is the envelope written to every client. Timestamp is RFC 3339 UTC.
type Message struct {
	Type      MessageType `json:"type"`
	Step      string      `json:"step,omitempty"`
	Status    string      `json:"status,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// StageEvent is the payload of a validation:progress message.
type StageEvent struct {
	RunID    string             `json:"run_id"`
	File     string             `json:"file"`
	Stage    string             `json:"stage"`
	Status   domain.StageStatus `json:"status"`
	Progress float64            `json:"progress"`
	ETA      string             `json:"eta,omitempty"`
	Message  string             `json:"message"`
}

// RunEvent is the payload of the messages sent when a run starts or ends.
type RunEvent struct {
	RunID    string `json:"run_id"`
	FirmID   string `json:"firm_id,omitempty"`
	Files    int    `json:"files"`
	Status   string `json:"status,omitempty"`
	Errors   int    `json:"errors,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	Ready    bool   `json:"ready_for_analysis,omitempty"`
}
