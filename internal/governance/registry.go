// Package governance enforces retrieval policies over scored candidates.
package governance

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Registry is an immutable catalogue of named policies.
// Build it once at startup and share it; it has no mutating methods.
type Registry struct {
	policies    map[string]domain.GovernancePolicy
	order       []string
	defaultName string
}

// NewRegistry builds a registry. Names are matched case-insensitively and
// defaultName must be one of the given policies.
func NewRegistry(defaultName string, policies ...domain.GovernancePolicy) (*Registry, error) {
	r := &Registry{
		policies:    make(map[string]domain.GovernancePolicy, len(policies)),
		defaultName: normalizeName(defaultName),
	}
	for _, p := range policies {
		key := normalizeName(p.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: policy name is required", domain.ErrInvalidInput)
		}
		if _, dup := r.policies[key]; dup {
			return nil, fmt.Errorf("%w: duplicate policy %q", domain.ErrInvalidInput, p.Name)
		}
		if p.MaxPerDocument < 1 {
			return nil, fmt.Errorf("%w: policy %q needs max_per_document >= 1", domain.ErrInvalidInput, p.Name)
		}
		p.Name = key
		r.policies[key] = p
		r.order = append(r.order, key)
	}
	if _, ok := r.policies[r.defaultName]; !ok {
		return nil, fmt.Errorf("%w: default policy %q is not registered", domain.ErrInvalidInput, defaultName)
	}
	return r, nil
}

// DefaultRegistry returns the built-in strict, balanced and recall profiles
// with balanced as the default.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(domain.PolicyBalanced,
		domain.GovernancePolicy{Name: domain.PolicyStrict, MinScore: 0.16, MaxPerDocument: 1, AllowFallback: false},
		domain.GovernancePolicy{Name: domain.PolicyBalanced, MinScore: 0.08, MaxPerDocument: 2, AllowFallback: true},
		domain.GovernancePolicy{Name: domain.PolicyRecall, MinScore: 0.03, MaxPerDocument: 4, AllowFallback: true},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// WithDefault returns a copy of r whose default is name.
// Unknown names leave the default unchanged.
func (r *Registry) WithDefault(name string) *Registry {
	key := normalizeName(name)
	if _, ok := r.policies[key]; !ok {
		return r
	}
	return &Registry{policies: r.policies, order: r.order, defaultName: key}
}

// Resolve returns the policy for name. Empty or unknown names resolve to
// the default policy; Resolve never fails.
func (r *Registry) Resolve(name string) domain.GovernancePolicy {
	if p, ok := r.policies[normalizeName(name)]; ok {
		return p
	}
	return r.policies[r.defaultName]
}

// Default returns the default policy
func (r *Registry) Default() domain.GovernancePolicy {
	return r.policies[r.defaultName]
}

// Policies lists every policy in registration order
func (r *Registry) Policies() []domain.GovernancePolicy {
	out := make([]domain.GovernancePolicy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.policies[name])
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
