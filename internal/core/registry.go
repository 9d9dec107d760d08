package core

import (
	"github.com/samber/lo"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

// DomainRegistry holds one Domain per configured tenant. The set is
// fixed at startup; there is no runtime mutation API.
type DomainRegistry struct {
	domains map[domain.Namespace]*Domain
}

func NewDomainRegistry(tenants []domain.Tenant, secret string, v *protocol.Validator, g *FloodGuard) *DomainRegistry {
	r := &DomainRegistry{domains: make(map[domain.Namespace]*Domain, len(tenants))}
	for _, t := range tenants {
		r.domains[t.Namespace] = NewDomain(t, secret, v, g)
	}
	return r
}

// Lookup routes a connection to the Domain owning its namespace.
func (r *DomainRegistry) Lookup(ns domain.Namespace) (*Domain, bool) {
	d, ok := r.domains[ns]
	return d, ok
}

// DomainInfo is a read-only view for APIs.
type DomainInfo struct {
	Namespace domain.Namespace `json:"ns"`
	Tenant    string           `json:"tenant"`
	Sessions  int              `json:"session_count"`
}

func (r *DomainRegistry) List() []DomainInfo {
	return lo.MapToSlice(r.domains, func(ns domain.Namespace, d *Domain) DomainInfo {
		return DomainInfo{Namespace: ns, Tenant: d.tenant, Sessions: d.SessionCount()}
	})
}
