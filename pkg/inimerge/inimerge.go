// Package inimerge implements the section-preserving merge that propagates
// the work file into the game's difficulty files. The merge is text-in /
// text-out and deterministic: everything before the first marker line in the
// target survives verbatim, everything from the marker onward is replaced by
// the source's current value.
package inimerge

import (
	"strings"
	"unicode"
)

// Marker is the section header that starts the synchronized region.
// Matching is case-insensitive on the whitespace-trimmed line.
const Marker = "[Global]"

// Options control a merge run.
type Options struct {
	// Marker overrides the default [Global] marker when non-empty.
	Marker string
	// PreserveExcluded mirrors the scheduler's in-game (true) vs pre-game
	// (false) distinction. The merge is header-preserving either way; the
	// flag is carried so callers state their mode explicitly.
	PreserveExcluded bool
}

// Merge applies MergeSection with the given options.
func Merge(sourceText, targetText string, opts Options) string {
	marker := opts.Marker
	if marker == "" {
		marker = Marker
	}
	return MergeSection(sourceText, targetText, marker)
}

// MergeSection merges sourceText into targetText at the first line matching
// marker:
//
//   - If the source has no marker line, the target is returned unchanged
//     (empty input stays empty); a source without the marker never destroys
//     an existing target.
//   - If the target is empty (absent), the result is the source's body from
//     the marker onward, left-trimmed.
//   - If the target has the marker, everything before it is preserved and
//     the body is replaced.
//   - If the target lacks the marker, the source body is appended once,
//     separated by at most one newline.
func MergeSection(sourceText, targetText, marker string) string {
	srcStart := markerLineStart(sourceText, marker)
	if srcStart < 0 {
		return targetText
	}
	sourceBody := strings.TrimLeftFunc(sourceText[srcStart:], unicode.IsSpace)

	if targetText == "" {
		return sourceBody
	}

	tgtStart := markerLineStart(targetText, marker)
	if tgtStart >= 0 {
		header := strings.TrimRightFunc(targetText[:tgtStart], unicode.IsSpace)
		return header + "\n" + sourceBody
	}

	sep := ""
	if !strings.HasSuffix(targetText, "\n") {
		sep = "\n"
	}
	return targetText + sep + sourceBody
}

// markerLineStart returns the byte offset of the start of the first line
// whose whitespace-trimmed content case-insensitively equals marker, or -1.
func markerLineStart(text, marker string) int {
	offset := 0
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		var line string
		if end < 0 {
			line = text[offset:]
		} else {
			line = text[offset : offset+end]
		}

		if strings.EqualFold(strings.TrimSpace(line), marker) {
			return offset
		}

		if end < 0 {
			break
		}
		offset += end + 1
	}
	return -1
}
