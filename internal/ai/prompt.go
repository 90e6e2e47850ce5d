package ai

import (
	"strconv"
	"strings"
)

// Media is the metadata the model sees for one item.
type Media struct {
	Title    string
	AltID    *int64
	Overview string
}

// BuildPrompt renders the placement prompt. The output depends only on its inputs.
// rules, when non-empty, is appended as extra routing guidance between sibling folders.
func BuildPrompt(m Media, folders []string, rules string) string {
	altID := "unknown"
	if m.AltID != nil {
		altID = strconv.FormatInt(*m.AltID, 10)
	}

	var b strings.Builder
	b.WriteString("I have a media item that needs to be sorted into the correct root folder.\n\n")
	b.WriteString("Metadata:\n")
	b.WriteString("- Title: " + m.Title + "\n")
	b.WriteString("- ID: " + altID + "\n")
	b.WriteString("- Overview: " + m.Overview + "\n\n")
	b.WriteString("Available Root Folders:\n")
	b.WriteString(strings.Join(folders, "\n"))
	b.WriteString("\n\n")
	b.WriteString("Task:\n")
	b.WriteString("Based on the metadata (especially the genre or theme implied by the overview) and the folder names, ")
	b.WriteString("decide which root folder this item belongs in.\n\n")
	if rules = strings.TrimSpace(rules); rules != "" {
		b.WriteString("Routing rules:\n")
		b.WriteString(rules)
		b.WriteString("\n\n")
	}
	b.WriteString("Constraints:\n")
	b.WriteString("- Return ONLY one folder path, exactly as it appears in the list above.\n")
	b.WriteString("- Do not add explanations or quotes.\n")
	b.WriteString("- If unsure, pick the best logical match.\n")
	return b.String()
}
