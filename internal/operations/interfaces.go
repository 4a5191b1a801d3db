package operations

// ProgressReporter receives run and stage events, typically a WebSocket hub
type ProgressReporter interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}
