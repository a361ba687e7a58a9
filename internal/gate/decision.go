package gate

import (
	"github.com/acutis-security/scangate/internal/hooks"
	"github.com/acutis-security/scangate/internal/logger"
)

// loopCeiling caps forced re-entries on hosts that report a loop counter.
const loopCeiling = 3

// BlockReason is the remediation message shown to the agent when the turn
// is blocked.
const BlockReason = "Security-relevant code was written but not yet verified. " +
	"Call mcp__acutis__scan_code with the code and a PCST contract. " +
	"Fix any BLOCK results before completing."

// Decision is the gate's answer for one hook invocation.
type Decision struct {
	Allow    bool
	Reason   string
	Analysis Analysis
}

// Evaluate combines the loop guard and the transcript walk into a decision.
// The guard runs before any transcript work: once the host has forced the
// agent to continue, blocking again would spin the hook forever.
func Evaluate(in hooks.StopInput) Decision {
	if in.StopHookActive || in.LoopCount >= loopCeiling {
		logger.Debug().
			Bool("stop_hook_active", in.StopHookActive).
			Int("loop_count", in.LoopCount).
			Msg("Loop guard triggered, allowing stop")
		return Decision{Allow: true, Analysis: emptyAnalysis()}
	}

	a := AnalyzeTranscript(in.TranscriptPath)

	if !a.HasSecurityWrites() || !a.HasUnverifiedWrites() {
		return Decision{Allow: true, Analysis: a}
	}

	logger.Debug().
		Int("last_write_pos", a.LastWritePos).
		Int("last_allow_pos", a.LastAllowPos).
		Msg("Unverified security writes, blocking stop")

	return Decision{Allow: false, Reason: BlockReason, Analysis: a}
}
