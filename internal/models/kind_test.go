package models

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, s := range []string{"movie", "series"} {
		k, err := ParseKind(s)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
		if string(k) != s {
			t.Fatalf("ParseKind(%q) = %q", s, k)
		}
	}
	if _, err := ParseKind("tv"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestSettingsUpstreamAndModel(t *testing.T) {
	s := &Settings{RadarrURL: "http://radarr", RadarrAPIKey: "r", SonarrURL: "http://sonarr", SonarrAPIKey: "s"}
	if u, k := s.Upstream(KindMovie); u != "http://radarr" || k != "r" {
		t.Fatalf("movie upstream = %q %q", u, k)
	}
	if u, k := s.Upstream(KindSeries); u != "http://sonarr" || k != "s" {
		t.Fatalf("series upstream = %q %q", u, k)
	}
	if s.Model() != DefaultAIModel {
		t.Fatalf("expected default model, got %q", s.Model())
	}
	s.AIModel = "gemini-2.0-flash"
	if s.Model() != "gemini-2.0-flash" {
		t.Fatalf("expected configured model, got %q", s.Model())
	}
}
