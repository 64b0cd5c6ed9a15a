package adapters

import (
	"github.com/paycalhq/paycal/internal/config"
	"github.com/paycalhq/paycal/internal/payment/adapters/stripe"
	"github.com/paycalhq/paycal/internal/payment/domain"
)

// Registry resolves webhook adapters by provider name.
type Registry struct {
	adapters map[string]domain.Adapter
}

// NewRegistry builds the adapter registry from configuration. Providers
// with no configured secret are left unregistered.
func NewRegistry(cfg config.Config) *Registry {
	r := &Registry{adapters: map[string]domain.Adapter{}}
	if cfg.StripeWebhookSecret != "" {
		r.register(stripe.New(cfg.StripeWebhookSecret))
	}
	return r
}

func (r *Registry) register(a domain.Adapter) {
	r.adapters[a.Provider()] = a
}

// Lookup returns the adapter for a provider, or ErrProviderUnknown.
func (r *Registry) Lookup(provider string) (domain.Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, domain.ErrProviderUnknown
	}
	return a, nil
}
