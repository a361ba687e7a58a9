package gate

import (
	"path/filepath"
	"strings"
)

// Static classification sets. These are deliberately compiled in rather than
// configurable: the gate answers one fixed question and hosts should not be
// able to quietly narrow it.
var (
	// securityExtensions are the file extensions considered security-relevant
	// (executable or interpreted source).
	securityExtensions = map[string]struct{}{
		".py":   {},
		".js":   {},
		".jsx":  {},
		".ts":   {},
		".tsx":  {},
		".php":  {},
		".html": {},
		".htm":  {},
		".mjs":  {},
		".cjs":  {},
	}

	// skipSegments are path segments that exempt a file from scanning:
	// dependency caches, VCS directories, virtualenvs, and lockfiles.
	skipSegments = map[string]struct{}{
		"node_modules":      {},
		"__pycache__":       {},
		".git":              {},
		"venv":              {},
		".venv":             {},
		"package-lock.json": {},
		"yarn.lock":         {},
		"poetry.lock":       {},
	}

	// writeTools are the tool names (exact match) that mutate files.
	writeTools = map[string]struct{}{
		"Write":      {},
		"Edit":       {},
		"write":      {},
		"edit":       {},
		"editFiles":  {},
		"createFile": {},
	}

	// scanToolNames are the known identifiers of the verification tool.
	scanToolNames = map[string]struct{}{
		"mcp__acutis__scan_code": {},
		"scan_code":              {},
		"acutis__scan_code":      {},
	}
)

// scanToolKeyword is matched as a substring so that host-added namespacing
// around the tool identifier (MCP prefixes and the like) still counts.
const scanToolKeyword = "scan_code"

// allowToken is the literal the verification tool emits on a passing result.
const allowToken = "ALLOW"

// IsSecurityRelevant reports whether a file path should be gated on
// verification. The extension check is case-insensitive; any excluded path
// segment exempts the whole path.
func IsSecurityRelevant(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := securityExtensions[ext]; !ok {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := skipSegments[seg]; ok {
			return false
		}
	}
	return true
}

// isWriteTool reports whether name is a recognized file-mutation tool.
func isWriteTool(name string) bool {
	_, ok := writeTools[name]
	return ok
}

// isScanTool reports whether name identifies the verification tool by exact
// match against the known identifiers.
func isScanTool(name string) bool {
	_, ok := scanToolNames[name]
	return ok
}

// isScanToolLoose reports whether name contains the verification keyword.
// This coexists with isScanTool on purpose: the loose match tolerates host
// prefixes the exact match cannot see.
func isScanToolLoose(name string) bool {
	return strings.Contains(name, scanToolKeyword)
}

// filePathOf extracts the target path from a tool input, recognizing both
// field-name spellings the hosts use.
func filePathOf(toolInput map[string]any) string {
	if fp, ok := toolInput["file_path"].(string); ok && fp != "" {
		return fp
	}
	if fp, ok := toolInput["filePath"].(string); ok && fp != "" {
		return fp
	}
	return ""
}
