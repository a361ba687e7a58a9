package hooks

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/acutis-security/scangate/internal/logger"
)

// ReadInput reads the stop-hook input record from r. Empty, whitespace-only,
// or malformed input degrades to the zero record rather than failing: the
// hook must never break the host turn because of its own input handling.
func ReadInput(r io.Reader) StopInput {
	var in StopInput

	raw, err := io.ReadAll(r)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to read hook input")
		return in
	}

	if strings.TrimSpace(string(raw)) == "" {
		return in
	}

	if err := json.Unmarshal(raw, &in); err != nil {
		logger.Debug().Err(err).Msg("Failed to parse hook input")
		return StopInput{}
	}

	return in
}
