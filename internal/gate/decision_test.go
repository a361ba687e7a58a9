package gate

import (
	"strings"
	"testing"

	"github.com/acutis-security/scangate/internal/hooks"
)

func TestEvaluateEmptyTranscriptPath(t *testing.T) {
	decision := Evaluate(hooks.StopInput{})
	if !decision.Allow {
		t.Error("Empty transcript path must allow the stop")
	}
}

func TestEvaluateBlocksUnverifiedWrites(t *testing.T) {
	path := writeTranscript(t, writePyLine)

	decision := Evaluate(hooks.StopInput{TranscriptPath: path})
	if decision.Allow {
		t.Fatal("Expected block for unverified security write")
	}
	if !strings.Contains(decision.Reason, "scan_code") {
		t.Errorf("Block reason should name the verification tool, got %q", decision.Reason)
	}
	if !strings.Contains(decision.Reason, "not yet verified") {
		t.Errorf("Block reason should explain the remediation, got %q", decision.Reason)
	}
}

func TestEvaluateAllowsVerifiedWrites(t *testing.T) {
	path := writeTranscript(t, writePyLine, scanAllowLine)

	decision := Evaluate(hooks.StopInput{TranscriptPath: path})
	if !decision.Allow {
		t.Error("Expected allow when the last write is verified")
	}
}

func TestEvaluateLoopGuardOverridesBlock(t *testing.T) {
	path := writeTranscript(t, writePyLine)

	decision := Evaluate(hooks.StopInput{
		TranscriptPath: path,
		StopHookActive: true,
	})
	if !decision.Allow {
		t.Error("stop_hook_active must force allow regardless of transcript state")
	}
}

func TestEvaluateLoopCountCeiling(t *testing.T) {
	path := writeTranscript(t, writePyLine)

	tests := []struct {
		name      string
		loopCount int
		wantAllow bool
	}{
		{"below ceiling", 2, false},
		{"at ceiling", 3, true},
		{"above ceiling", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(hooks.StopInput{
				TranscriptPath: path,
				LoopCount:      tt.loopCount,
			})
			if decision.Allow != tt.wantAllow {
				t.Errorf("Evaluate(loop_count=%d).Allow = %v, want %v",
					tt.loopCount, decision.Allow, tt.wantAllow)
			}
		})
	}
}
