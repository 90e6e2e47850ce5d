package arr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voyagen/mediaorganizer/internal/logging"
	"github.com/voyagen/mediaorganizer/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func countingClient(calls *atomic.Int32) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("unexpected request")
	})}
}

func TestUnconfiguredClientMakesNoRequests(t *testing.T) {
	cases := []struct {
		name    string
		baseURL string
		apiKey  string
	}{
		{name: "no url", apiKey: "key"},
		{name: "no key", baseURL: "http://radarr:7878"},
		{name: "neither"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			for _, kind := range models.Kinds() {
				c, err := New(kind, tc.baseURL, tc.apiKey, logging.Discard(), WithHTTPClient(countingClient(&calls)))
				if err != nil {
					t.Fatalf("New(%s): %v", kind, err)
				}
				if got := c.RootFolders(context.Background()); len(got) != 0 {
					t.Fatalf("RootFolders = %v, want empty", got)
				}
				if got := c.Library(context.Background()); len(got) != 0 {
					t.Fatalf("Library = %v, want empty", got)
				}
			}
			if n := calls.Load(); n != 0 {
				t.Fatalf("expected zero network attempts, got %d", n)
			}
		})
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	var calls atomic.Int32
	c, err := New(models.Kind("tv"), "http://sonarr:8989", "key", logging.Discard(), WithHTTPClient(countingClient(&calls)))
	if !errors.Is(err, models.ErrUnknownKind) || c != nil {
		t.Fatalf("New(tv) = %v, %v; want ErrUnknownKind", c, err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected zero network attempts, got %d", n)
	}
}

func TestNewSelectsVariantByKind(t *testing.T) {
	for _, kind := range models.Kinds() {
		c, err := New(kind, "", "", logging.Discard())
		if err != nil {
			t.Fatalf("New(%s): %v", kind, err)
		}
		if c.Kind() != kind {
			t.Fatalf("New(%s).Kind() = %s", kind, c.Kind())
		}
	}
}

func TestRootFolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/radarr/api/v3/rootfolder" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`[{"path":"/data/Anime","freeSpace":1},{"path":"/data/English"}]`))
	}))
	defer srv.Close()

	c := NewRadarr(srv.URL+"/radarr", "secret", logging.Discard())
	got := c.RootFolders(context.Background())
	if len(got) != 2 || got[0] != "/data/Anime" || got[1] != "/data/English" {
		t.Fatalf("RootFolders = %v", got)
	}
}

func TestRadarrLibraryMapsTmdbID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id":7,"title":"Spirited Away","path":"/data/Anime/Spirited Away (2001)","rootFolderPath":"/data/Anime","tmdbId":129,"overview":"A girl"},
			{"id":8,"title":"Unmatched","path":"/data/English/Unmatched","tmdbId":0}
		]`))
	}))
	defer srv.Close()

	items := NewRadarr(srv.URL, "k", logging.Discard()).Library(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.ExternalID != 7 || first.Title != "Spirited Away" || first.RootFolderPath != "/data/Anime" || first.Overview != "A girl" {
		t.Fatalf("unexpected item: %+v", first)
	}
	if first.AltID == nil || *first.AltID != 129 {
		t.Fatalf("expected tmdb id 129, got %v", first.AltID)
	}
	if items[1].AltID != nil {
		t.Fatalf("expected zero tmdb id to map to nil, got %v", *items[1].AltID)
	}
	if items[1].RootFolderPath != "" {
		t.Fatalf("expected missing rootFolderPath, got %q", items[1].RootFolderPath)
	}
}

func TestSonarrLibraryMapsTvdbID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/series" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":3,"title":"Frieren","path":"/tv/Anime/Frieren","rootFolderPath":"/tv/Anime","tvdbId":424536,"tmdbId":999}]`))
	}))
	defer srv.Close()

	c := NewSonarr(srv.URL, "k", logging.Discard())
	if c.Kind() != models.KindSeries {
		t.Fatalf("Kind = %s", c.Kind())
	}
	items := c.Library(context.Background())
	if len(items) != 1 || items[0].AltID == nil || *items[0].AltID != 424536 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestFailuresDegradeToEmpty(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "unauthorized", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}},
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{name: "malformed json", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewSonarr(srv.URL, "k", logging.Discard())
			if got := c.RootFolders(context.Background()); len(got) != 0 {
				t.Fatalf("RootFolders = %v", got)
			}
			if got := c.Library(context.Background()); len(got) != 0 {
				t.Fatalf("Library = %v", got)
			}
		})
	}
}

func TestTimeoutDegradesToEmpty(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewRadarr(srv.URL, "k", logging.Discard(), WithTimeouts(20*time.Millisecond, 20*time.Millisecond))
	start := time.Now()
	if got := c.Library(context.Background()); len(got) != 0 {
		t.Fatalf("Library = %v", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout not applied, took %v", elapsed)
	}
}
