package application

import (
	"sync"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// SearchClientFactory builds a search client bound to a single token.
type SearchClientFactory func(token string) driven.SearchClient

// SearchClientProvider hands out one client per credential so that rotating
// to another credential switches clients without rebuilding transports.
// Clients are built lazily on first use and cached for the process lifetime.
type SearchClientProvider struct {
	mu      sync.RWMutex
	factory SearchClientFactory
	clients map[string]driven.SearchClient
}

// NewSearchClientProvider creates a provider using factory to construct
// clients on demand.
func NewSearchClientProvider(factory SearchClientFactory) *SearchClientProvider {
	return &SearchClientProvider{
		factory: factory,
		clients: make(map[string]driven.SearchClient),
	}
}

// For returns the client for the given credential, building it on first use.
func (p *SearchClientProvider) For(cred *model.Credential) driven.SearchClient {
	p.mu.RLock()
	client, ok := p.clients[cred.Token]
	p.mu.RUnlock()
	if ok {
		return client
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[cred.Token]; ok {
		return client
	}
	client = p.factory(cred.Token)
	p.clients[cred.Token] = client
	return client
}
