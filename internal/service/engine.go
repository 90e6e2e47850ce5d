package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/ai"
	"github.com/voyagen/mediaorganizer/internal/arr"
	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/store"
)

// Library is the read side of a Radarr/Sonarr instance. Implementations
// degrade every failure to an empty result.
type Library interface {
	RootFolders(ctx context.Context) []string
	Library(ctx context.Context) []arr.Item
}

// ClientFactory builds the Library for kind from the connection details in
// the settings row. It fails for a kind no upstream service tracks.
type ClientFactory func(kind models.Kind, baseURL, apiKey string) (Library, error)

// Suggester proposes a root folder for one item.
type Suggester interface {
	SuggestLocation(ctx context.Context, opts ai.Options, m ai.Media, folders []string) (string, bool)
}

// Deps groups everything an Engine needs.
type Deps struct {
	Store     store.Store
	Clients   ClientFactory
	Suggester Suggester
	Logger    logrus.FieldLogger
}

// Engine reconciles local records with upstream libraries and the AI
// suggester. It is built once per process and is safe for concurrent use.
type Engine struct {
	store     store.Store
	clients   ClientFactory
	suggester Suggester
	logger    logrus.FieldLogger
}

// NewEngine builds an Engine. A nil Clients falls back to the HTTP arr client.
func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	clients := d.Clients
	if clients == nil {
		clients = ArrClients(logger)
	}
	return &Engine{
		store:     d.Store,
		clients:   clients,
		suggester: d.Suggester,
		logger:    logger.WithField("component", "engine"),
	}
}

// ArrClients returns a ClientFactory backed by arr.Client.
func ArrClients(logger logrus.FieldLogger) ClientFactory {
	return func(kind models.Kind, baseURL, apiKey string) (Library, error) {
		c, err := arr.New(kind, baseURL, apiKey, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// settings loads the settings row. A missing row is reported as (nil, nil).
func (e *Engine) settings(ctx context.Context) (*models.Settings, error) {
	st, err := e.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

func (e *Engine) client(st *models.Settings, kind models.Kind) (Library, error) {
	baseURL, apiKey := st.Upstream(kind)
	return e.clients(kind, baseURL, apiKey)
}
