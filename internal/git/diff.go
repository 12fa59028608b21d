package git

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/hong-ai/hong/internal/models"
)

// HashContent returns the SHA-256 hex digest of raw diff text. Cache keys
// pair this with the worktree path so a cached parse is only ever served
// for byte-identical input.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ParseDiff splits unified diff output into per-file records, preserving
// input order. Malformed sections degrade to whatever fields could be
// recovered; the parser never panics.
func ParseDiff(diffText string) []models.ParsedDiffFile {
	files := []models.ParsedDiffFile{}
	if strings.TrimSpace(diffText) == "" {
		return files
	}

	lines := strings.Split(diffText, "\n")
	var section []string

	flush := func() {
		if len(section) > 0 {
			files = append(files, parseSection(section))
			section = nil
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
		}
		if section == nil && !strings.HasPrefix(line, "diff --git ") {
			// Leading garbage before the first header is not a file
			continue
		}
		section = append(section, line)
	}
	flush()

	return files
}

// parseSection builds one ParsedDiffFile from the lines of a single
// diff --git section
func parseSection(lines []string) models.ParsedDiffFile {
	file := models.ParsedDiffFile{
		DiffText: strings.Join(lines, "\n") + "\n",
	}

	headerOld, headerNew := parseGitHeaderPaths(lines[0])
	var oldPath, newPath string
	inHunk := false

	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk && strings.HasPrefix(line, "--- "):
			oldPath = parseMarkerPath(line[4:], "a/")
		case !inHunk && strings.HasPrefix(line, "+++ "):
			newPath = parseMarkerPath(line[4:], "b/")
		case !inHunk && strings.HasPrefix(line, "rename from "):
			oldPath = strings.TrimPrefix(line, "rename from ")
		case !inHunk && strings.HasPrefix(line, "rename to "):
			newPath = strings.TrimPrefix(line, "rename to ")
		case !inHunk && (strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch"):
			file.IsBinary = true
		case inHunk && strings.HasPrefix(line, "+"):
			file.Additions++
		case inHunk && strings.HasPrefix(line, "-"):
			file.Deletions++
		}
	}

	if oldPath == "" {
		oldPath = headerOld
	}
	if newPath == "" {
		newPath = headerNew
	}

	file.OldPath = oldPath
	file.NewPath = newPath
	file.IsDeletedFile = newPath == "/dev/null" && oldPath != "" && oldPath != "/dev/null"

	if file.IsBinary {
		file.Additions = 0
		file.Deletions = 0
	}

	// Identity follows the surviving path
	if file.IsDeletedFile {
		file.Key = oldPath
	} else {
		file.Key = newPath
	}

	return file
}

// parseMarkerPath extracts the path from a ---/+++ marker value, stripping
// the a/ or b/ prefix and any trailing tab metadata
func parseMarkerPath(value, prefix string) string {
	if idx := strings.IndexByte(value, '\t'); idx >= 0 {
		value = value[:idx]
	}
	value = unquotePath(value)
	if value == "/dev/null" {
		return value
	}
	return strings.TrimPrefix(value, prefix)
}

// parseGitHeaderPaths recovers old and new paths from a
// `diff --git a/<old> b/<new>` line. Sections for binary files and pure
// renames have no ---/+++ markers, so this is the only source there.
func parseGitHeaderPaths(header string) (string, string) {
	rest := strings.TrimPrefix(header, "diff --git ")
	if rest == header {
		return "", ""
	}

	// Quoted form: diff --git "a/with space" "b/with space"
	if strings.HasPrefix(rest, `"`) {
		parts := splitQuotedPair(rest)
		if len(parts) == 2 {
			return strings.TrimPrefix(unquotePath(parts[0]), "a/"),
				strings.TrimPrefix(unquotePath(parts[1]), "b/")
		}
		return "", ""
	}

	// Unquoted: split at the last " b/" so old paths containing " b/"
	// still resolve when both sides are equal-length
	idx := strings.LastIndex(rest, " b/")
	if idx < 0 {
		return "", ""
	}
	return strings.TrimPrefix(rest[:idx], "a/"), rest[idx+len(" b/"):]
}

// splitQuotedPair splits `"a/x" "b/y"` into its two quoted halves
func splitQuotedPair(s string) []string {
	var parts []string
	for len(s) > 0 && s[0] == '"' {
		end := 1
		for end < len(s) {
			if s[end] == '\\' {
				end += 2
				continue
			}
			if s[end] == '"' {
				break
			}
			end++
		}
		if end >= len(s) {
			return nil
		}
		parts = append(parts, s[:end+1])
		s = strings.TrimLeft(s[end+1:], " ")
	}
	return parts
}

// unquotePath undoes git's C-style path quoting when present
func unquotePath(path string) string {
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		if unquoted, err := strconv.Unquote(path); err == nil {
			return unquoted
		}
	}
	return path
}

// ComputeDiffStats sums per-file counts into repository totals
func ComputeDiffStats(files []models.ParsedDiffFile) models.DiffStats {
	stats := models.DiffStats{FileCount: len(files)}
	for _, file := range files {
		stats.Additions += file.Additions
		stats.Deletions += file.Deletions
	}
	return stats
}
