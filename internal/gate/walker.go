package gate

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/acutis-security/scangate/internal/logger"
)

// maxClassifyDepth bounds the recursive descent into nested transcript
// structures so that malformed or adversarially deep records cannot hang the
// walk. Subtrees past the ceiling contribute no matches.
const maxClassifyDepth = 10

// Analysis is the verification state accumulated over one transcript walk.
// Positions are zero-based indices over successfully parsed records; -1
// means the event was never seen.
type Analysis struct {
	LastWritePos int
	LastAllowPos int
	Records      int
}

// HasSecurityWrites reports whether any security-relevant file was written.
func (a Analysis) HasSecurityWrites() bool {
	return a.LastWritePos >= 0
}

// HasUnverifiedWrites reports whether the most recent security-relevant
// write happened after the most recent verification success.
func (a Analysis) HasUnverifiedWrites() bool {
	return a.LastWritePos > a.LastAllowPos
}

func emptyAnalysis() Analysis {
	return Analysis{LastWritePos: -1, LastAllowPos: -1}
}

// AnalyzeTranscript streams the JSONL transcript at path and folds it into
// an Analysis. Absence of evidence resolves to "nothing to block": a missing
// or unreadable transcript yields the empty analysis, unparsable lines are
// skipped without consuming a position, and a mid-stream read error stops
// the scan with whatever state was accumulated so far.
func AnalyzeTranscript(path string) Analysis {
	a := emptyAnalysis()

	if path == "" {
		return a
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return a
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Debug().Str("path", path).Err(err).Msg("Failed to open transcript")
		return a
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Transcript lines can carry whole tool outputs; allow large lines
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	idx := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			logger.Debug().Int("record", idx).Err(err).Msg("Skipping unparsable transcript line")
			continue
		}

		write, allow := classifyEntry(entry, 0)
		if write {
			a.LastWritePos = idx
		}
		if allow {
			a.LastAllowPos = idx
		}

		idx++
	}
	a.Records = idx

	if err := scanner.Err(); err != nil {
		// Partial state is still a valid answer
		logger.Debug().Str("path", path).Err(err).Msg("Transcript scan aborted early")
	}

	return a
}

// classifyEntry inspects one decoded transcript record, and everything
// nested inside it, for security-relevant writes and verification ALLOW
// results. The result at any level is the OR of the local match and all
// descendants' matches, computed independently for the two signals.
func classifyEntry(entry any, depth int) (hasWrite, hasAllow bool) {
	if depth > maxClassifyDepth {
		return false, false
	}

	switch v := entry.(type) {
	case map[string]any:
		// Content-block shape: {"type":"tool_use","name":...,"input":{...}}
		if str(v, "type") == "tool_use" && isWriteTool(str(v, "name")) {
			toolInput := obj(v, "input")
			if toolInput == nil {
				toolInput = obj(v, "tool_input")
			}
			if fp := filePathOf(toolInput); fp != "" && IsSecurityRelevant(fp) {
				hasWrite = true
			}
		}

		// Flat hook-event shape: {"tool_name":...,"tool_input":{...}}
		if isWriteTool(str(v, "tool_name")) {
			if fp := filePathOf(obj(v, "tool_input")); fp != "" && IsSecurityRelevant(fp) {
				hasWrite = true
			}
		}

		if scanResultAllows(v) {
			hasAllow = true
		}

		// Containers that conventionally nest further conversation content
		for _, key := range [...]string{"content", "messages", "message"} {
			switch nested := v[key].(type) {
			case map[string]any:
				w, al := classifyEntry(nested, depth+1)
				hasWrite = hasWrite || w
				hasAllow = hasAllow || al
			case []any:
				w, al := classifyEntry(nested, depth+1)
				hasWrite = hasWrite || w
				hasAllow = hasAllow || al
			}
		}

	case []any:
		for _, item := range v {
			w, al := classifyEntry(item, depth+1)
			hasWrite = hasWrite || w
			hasAllow = hasAllow || al
		}
	}

	return hasWrite, hasAllow
}

// scanResultAllows reports whether the record is a verification-tool result
// carrying the ALLOW token. The tool name is matched both exactly and by
// substring; either strategy counts.
func scanResultAllows(v map[string]any) bool {
	if name := str(v, "name"); str(v, "type") == "tool_result" && (isScanTool(name) || isScanToolLoose(name)) {
		if payloadHasAllow(v["content"]) {
			return true
		}
	}

	if name := str(v, "tool_name"); name != "" && (isScanTool(name) || isScanToolLoose(name)) {
		result := v["result"]
		if result == nil {
			result = v["tool_result"]
		}
		if payloadHasAllow(result) {
			return true
		}
	}

	return false
}

// payloadHasAllow looks for the ALLOW token in the shapes verification
// results come in: plain text, a list of text blocks, or a structured
// verdict with a decision field.
func payloadHasAllow(payload any) bool {
	switch p := payload.(type) {
	case string:
		return strings.Contains(p, allowToken)
	case []any:
		for _, item := range p {
			block, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if strings.Contains(str(block, "text"), allowToken) {
				return true
			}
		}
	case map[string]any:
		return strings.Contains(str(p, "decision"), allowToken)
	}
	return false
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func obj(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}
