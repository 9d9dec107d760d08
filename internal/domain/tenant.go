package domain

// Namespace is a tenant's namespace key; it doubles as the Domain id.
type Namespace string

// Tenant is one configured customer entry. The label is informational
// (usually the tenant's site hostname); routing happens on the namespace.
type Tenant struct {
	Namespace Namespace `mapstructure:"ns" json:"ns"`
	Label     string    `mapstructure:"tenant" json:"tenant"`
}
