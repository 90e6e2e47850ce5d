package ai

import "strings"

// MatchFolder maps a raw model response onto the candidate folders.
//
// An exact match against a trimmed candidate wins, then the first candidate
// containing the response. Otherwise the trimmed response is returned unchanged,
// so callers must accept paths outside the candidate set. A blank response is
// contained in every candidate and resolves to the first one. ok is false only
// when nothing can be suggested.
func MatchFolder(response string, folders []string) (path string, ok bool) {
	suggested := strings.TrimSpace(response)
	for _, f := range folders {
		if strings.TrimSpace(f) == suggested {
			return f, true
		}
	}
	for _, f := range folders {
		if strings.Contains(f, suggested) {
			return f, true
		}
	}
	return suggested, suggested != ""
}
