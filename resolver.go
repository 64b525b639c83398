package netdb

import (
	"context"
	"net/netip"

	"github.com/moriyoshi/go-netdb/internal/resolver"
)

// FamilyConstraint directs the resolver facade to one address
// family.
type FamilyConstraint uint8

const (
	// FamilyAny accepts whichever family the resolver answers
	// with.
	FamilyAny FamilyConstraint = iota
	// FamilyV4 requests an IPv4 address.
	FamilyV4
	// FamilyV6 requests an IPv6 address.
	FamilyV6
	// FamilyV4orV6 accepts either family; the built-in resolver
	// answers with the IPv4 address when one exists.
	FamilyV4orV6
)

// Resolver is the name resolution back end consumed by GetAddrInfo
// and GetHostByName. It returns at most one address per call; dual
// stack results come from two calls with different constraints.
type Resolver interface {
	ResolveAddr(ctx context.Context, name string, constraint FamilyConstraint) (netip.Addr, error)
}

type defaultResolver struct {
	c *resolver.Client
}

// DefaultResolver returns the built-in DNS client, configured from
// the system resolver configuration.
func DefaultResolver() (Resolver, error) {
	c, err := resolver.NewClient()
	if err != nil {
		return nil, err
	}
	return defaultResolver{c}, nil
}

// WrapClient adapts a configured internal client to the Resolver
// interface.
func WrapClient(c *resolver.Client) Resolver {
	return defaultResolver{c}
}

func (d defaultResolver) ResolveAddr(ctx context.Context, name string, constraint FamilyConstraint) (netip.Addr, error) {
	var fam resolver.Family
	switch constraint {
	case FamilyV4:
		fam = resolver.FamilyV4
	case FamilyV6:
		fam = resolver.FamilyV6
	case FamilyV4orV6:
		fam = resolver.FamilyV4OrV6
	default:
		fam = resolver.FamilyAny
	}
	return d.c.QueryAddr(ctx, name, fam)
}
