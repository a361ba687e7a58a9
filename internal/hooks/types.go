package hooks

// Environment identifies which agent host invoked the hook. The two hosts
// speak near-identical stop-hook protocols but expect different response
// field names.
type Environment string

// Supported host environments
const (
	EnvClaudeCode Environment = "claude-code"
	EnvCursor     Environment = "cursor"
)

// StopInput is the single JSON record the host writes to the hook's stdin
// when the agent attempts to end its turn. It is read once per invocation
// and treated as read-only afterward.
type StopInput struct {
	SessionID      string `json:"session_id,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	Cwd            string `json:"cwd,omitempty"`
	HookEventName  string `json:"hook_event_name,omitempty"`

	// StopHookActive is set by Claude Code when the agent was already forced
	// to continue by a previous stop-hook decision.
	StopHookActive bool `json:"stop_hook_active,omitempty"`

	// LoopCount counts forced re-entries on hosts that report it.
	LoopCount int `json:"loop_count,omitempty"`

	// CursorVersion is only ever present on Cursor payloads.
	CursorVersion string `json:"cursor_version,omitempty"`
}

// ClaudeStopResponse is the blocking response shape for Claude Code.
type ClaudeStopResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// CursorStopResponse is the blocking response shape for Cursor.
type CursorStopResponse struct {
	FollowupMessage string `json:"followup_message"`
}
