package webhook

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// OutcomeProcessor turns a verified event into domain state. It must only use
// tx: the ledger flip to PROCESSED commits or rolls back with its writes.
type OutcomeProcessor interface {
	Process(ctx context.Context, tx *gorm.DB, evt Event) error
}

// ProcessorFunc adapts a function to OutcomeProcessor.
type ProcessorFunc func(ctx context.Context, tx *gorm.DB, evt Event) error

func (f ProcessorFunc) Process(ctx context.Context, tx *gorm.DB, evt Event) error {
	return f(ctx, tx, evt)
}

// DefaultSignatureHeader carries the signature when a provider sets no header.
const DefaultSignatureHeader = "X-Webhook-Signature"

// Provider bundles the verification settings and processor for one sender.
type Provider struct {
	Name            string
	Secret          string
	Scheme          Scheme
	SignatureHeader string
	Processor       OutcomeProcessor
}

// Registry resolves provider names to their configuration. It is built once
// at startup and read concurrently afterwards.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry validates and indexes providers by lower-cased name.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return nil, fmt.Errorf("webhook provider without name")
		}
		if p.Processor == nil {
			return nil, fmt.Errorf("webhook provider %q has no processor", name)
		}
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("webhook provider %q registered twice", name)
		}
		if p.Scheme == "" {
			p.Scheme = SchemeHexHMAC
		}
		if p.SignatureHeader == "" {
			p.SignatureHeader = DefaultSignatureHeader
		}
		p.Name = name
		r.providers[name] = p
	}
	return r, nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	return names
}
