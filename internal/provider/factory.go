package provider

import (
	"fmt"
	"sort"
	"sync"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/internal/domain/ports"
)

// Factory is a registry of named providers. It performs lookups only.
type Factory struct {
	mu          sync.RWMutex
	providers   map[string]ports.RateProvider
	defaultName string
}

func NewFactory(defaultName string, providers ...ports.RateProvider) *Factory {
	f := &Factory{
		providers:   make(map[string]ports.RateProvider, len(providers)),
		defaultName: defaultName,
	}
	for _, p := range providers {
		f.Register(p)
	}
	return f
}

// Register adds p under p.Name(), replacing any provider with that name.
func (f *Factory) Register(p ports.RateProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[p.Name()] = p
}

func (f *Factory) GetProvider(name string) (ports.RateProvider, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.providers[name]
	if !ok {
		return nil, model.NewConfigurationError("get_provider",
			fmt.Errorf("rate provider %q is not registered", name))
	}
	return p, nil
}

func (f *Factory) GetDefaultProvider() (ports.RateProvider, error) {
	return f.GetProvider(f.defaultName)
}

// Validate checks that the default provider is registered. Call at startup.
func (f *Factory) Validate() error {
	_, err := f.GetDefaultProvider()
	return err
}

func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
