package observability

const (
	headerRequestID = "x-request-id"
	headerTraceID   = "trace_id"
)

// EventEnvelope wraps a chat lifecycle event for the broker. EventType names
// the stream ("ws_events"), EventName the concrete event (ws_connect,
// ws_disconnect, ws_error).
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders carries request and trace correlation into broker messages.
// Empty values are omitted so consumers can rely on header presence.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers[headerRequestID] = requestID
	}
	if traceID != "" {
		headers[headerTraceID] = traceID
	}
	return headers
}
