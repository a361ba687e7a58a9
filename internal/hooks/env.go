package hooks

// DetectEnvironment decides which host protocol is in effect by looking at
// the discriminator fields of the parsed input record. Cursor payloads carry
// a cursor_version field and spell the event name in lowercase; anything
// else is treated as Claude Code, including the empty record produced from
// malformed stdin.
func DetectEnvironment(in StopInput) Environment {
	if in.CursorVersion != "" {
		return EnvCursor
	}
	if in.HookEventName == "stop" {
		return EnvCursor
	}
	return EnvClaudeCode
}
