// Package apiclient wraps the two model endpoints: a local OpenAI-compatible
// server and the remote smart-browse backend.
package apiclient

import (
	"net/http"
	"time"

	"github.com/dtnitsch/smart-browse/models"
)

// HealthTimeout bounds every health check.
const HealthTimeout = 5 * time.Second

type options struct {
	httpClient *http.Client
	now        func() time.Time
}

// Option configures Local and Remote clients.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock sets the time source for reply timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func collectOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Clients is the pair built from one Settings snapshot.
type Clients struct {
	Local  *Local
	Remote *Remote
}

// New builds both clients from settings.
func New(settings models.Settings, opts ...Option) *Clients {
	return &Clients{
		Local:  NewLocal(settings.LocalLLMURL, settings.LocalModel, opts...),
		Remote: NewRemote(settings.BackendURL, opts...),
	}
}
