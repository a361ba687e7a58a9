package hooks

import "encoding/json"

// MarshalBlock serializes a blocking decision in the shape the detected
// environment expects. The decision content is the same for both hosts;
// only the field names differ.
func MarshalBlock(env Environment, reason string) ([]byte, error) {
	switch env {
	case EnvCursor:
		return json.Marshal(CursorStopResponse{FollowupMessage: reason})
	default:
		return json.Marshal(ClaudeStopResponse{Decision: "block", Reason: reason})
	}
}
