package ai

import (
	"strings"
	"testing"
)

func TestBuildPromptIsDeterministic(t *testing.T) {
	id := int64(129)
	m := Media{Title: "Spirited Away", AltID: &id, Overview: "A girl wanders into a world of spirits."}
	folders := []string{"/data/Anime", "/data/English"}

	a := BuildPrompt(m, folders, "")
	b := BuildPrompt(m, folders, "")
	if a != b {
		t.Fatal("expected identical prompts for identical input")
	}
	for _, want := range []string{"Spirited Away", "129", "world of spirits", "/data/Anime\n/data/English", "ONLY one folder path"} {
		if !strings.Contains(a, want) {
			t.Fatalf("prompt missing %q:\n%s", want, a)
		}
	}
	if strings.Contains(a, "Routing rules") {
		t.Fatal("expected no routing rules section without rules")
	}
}

func TestBuildPromptAppendsRules(t *testing.T) {
	p := BuildPrompt(Media{Title: "Bluey"}, []string{"/tv/Kids", "/tv/Animation"}, "  Children's shows go to /tv/Kids.  ")
	if !strings.Contains(p, "Routing rules:\nChildren's shows go to /tv/Kids.\n") {
		t.Fatalf("rules not rendered:\n%s", p)
	}
	if !strings.Contains(p, "- ID: unknown") {
		t.Fatalf("expected unknown id placeholder:\n%s", p)
	}
}
