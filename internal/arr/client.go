package arr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/voyagen/mediaorganizer/internal/models"
)

const (
	defaultRootFolderTimeout = 10 * time.Second
	defaultLibraryTimeout    = 30 * time.Second
	maxErrorBody             = 512
)

// errNotConfigured marks a call skipped because the base URL or key is blank.
var errNotConfigured = errors.New("not configured")

// rootFolderGroup collapses concurrent root folder fetches against the same service.
var rootFolderGroup singleflight.Group

// Client talks to one Radarr or Sonarr instance. Every method is fail-soft:
// problems are logged and an empty result is returned.
type Client struct {
	variant           variant
	baseURL           string
	apiKey            string
	httpClient        *http.Client
	logger            logrus.FieldLogger
	rootFolderTimeout time.Duration
	libraryTimeout    time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeouts overrides the root folder and library call timeouts.
func WithTimeouts(rootFolders, library time.Duration) Option {
	return func(c *Client) {
		c.rootFolderTimeout = rootFolders
		c.libraryTimeout = library
	}
}

// New returns the client variant for kind. Kinds other than movie and series
// are rejected with models.ErrUnknownKind.
func New(kind models.Kind, baseURL, apiKey string, logger logrus.FieldLogger, opts ...Option) (*Client, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, fmt.Errorf("arr client: %w: %q", models.ErrUnknownKind, kind)
	}
	return newClient(v, baseURL, apiKey, logger, opts...), nil
}

// NewRadarr returns a movie client.
func NewRadarr(baseURL, apiKey string, logger logrus.FieldLogger, opts ...Option) *Client {
	return newClient(variants[models.KindMovie], baseURL, apiKey, logger, opts...)
}

// NewSonarr returns a series client.
func NewSonarr(baseURL, apiKey string, logger logrus.FieldLogger, opts ...Option) *Client {
	return newClient(variants[models.KindSeries], baseURL, apiKey, logger, opts...)
}

func newClient(v variant, baseURL, apiKey string, logger logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		variant:           v,
		baseURL:           baseURL,
		apiKey:            apiKey,
		httpClient:        http.DefaultClient,
		logger:            logger.WithField("service", v.kind.Service()),
		rootFolderTimeout: defaultRootFolderTimeout,
		libraryTimeout:    defaultLibraryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind reports which kind this client lists.
func (c *Client) Kind() models.Kind {
	return c.variant.kind
}

// Configured reports whether both base URL and API key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// RootFolders lists the configured root folder paths.
func (c *Client) RootFolders(ctx context.Context) []string {
	if !c.Configured() {
		return nil
	}
	key := c.baseURL + "\x00" + c.apiKey
	v, err, _ := rootFolderGroup.Do(key, func() (any, error) {
		body, err := c.get(ctx, "rootfolder", c.rootFolderTimeout)
		if err != nil {
			return nil, err
		}
		var folders []rootFolderResource
		if err := json.Unmarshal(body, &folders); err != nil {
			return nil, fmt.Errorf("decode root folders: %w", err)
		}
		paths := make([]string, 0, len(folders))
		for _, f := range folders {
			paths = append(paths, f.Path)
		}
		return paths, nil
	})
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch root folders")
		return nil
	}
	paths := v.([]string)
	// Callers get their own copy of the shared slice.
	return append([]string(nil), paths...)
}

// Library lists every movie or series in the service.
func (c *Client) Library(ctx context.Context) []Item {
	if !c.Configured() {
		return nil
	}
	body, err := c.get(ctx, c.variant.endpoint, c.libraryTimeout)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch library")
		return nil
	}
	items, err := c.variant.decode(body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to decode library")
		return nil
	}
	c.logger.WithField("count", len(items)).Debug("Fetched library")
	return items
}

func (c *Client) get(ctx context.Context, endpoint string, timeout time.Duration) ([]byte, error) {
	if !c.Configured() {
		return nil, errNotConfigured
	}
	endpointURL, err := url.JoinPath(c.baseURL, "api/v3", endpoint)
	if err != nil {
		return nil, fmt.Errorf("build %s url: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", endpoint, resp.StatusCode, string(snippet))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return body, nil
}

func decodeItems[R resource](body []byte) ([]Item, error) {
	var resources []R
	if err := json.Unmarshal(body, &resources); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resources))
	for _, r := range resources {
		items = append(items, r.item())
	}
	return items, nil
}
