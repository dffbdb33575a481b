package inimerge

import "strings"

// ExcludedParams are the difficulty-specific fields documented as intended
// to survive in-game synchronization. The merge itself never consults them
// (header preservation makes the [Info] copies survive anyway); they are
// exported for diagnostics such as the status command.
var ExcludedParams = []string{
	"DifficultyGameplayTag",
	"DifficultyNameKey",
	"DifficultySubtextKey",
	"DifficultyDescriptionKey",
	"DifficultyFlavorKey",
	"DifficultyBackground",
	"StackupLevel",
	"GameplayTagList",
}

var excludedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ExcludedParams))
	for _, p := range ExcludedParams {
		set[p] = struct{}{}
	}
	return set
}()

// ParamName extracts the parameter name from an INI line, or "" if the line
// is empty, a comment (# or ;), or a section header. Lines without '=' are
// treated as a bare parameter name.
func ParamName(line string) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, "#") ||
		strings.HasPrefix(stripped, ";") || strings.HasPrefix(stripped, "[") {
		return ""
	}
	if idx := strings.IndexByte(stripped, '='); idx >= 0 {
		return strings.TrimSpace(stripped[:idx])
	}
	return stripped
}

// ExcludedFieldsIn returns the excluded fields present in text, in the order
// they appear. Duplicates are reported once.
func ExcludedFieldsIn(text string) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		name := ParamName(line)
		if name == "" {
			continue
		}
		if _, excluded := excludedSet[name]; !excluded {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		found = append(found, name)
	}
	return found
}
