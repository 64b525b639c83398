// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver implements the small DNS client behind the netdb
// resolver facade: family-directed queries that yield at most one
// address per call.
//
// The client speaks plain RFC 1035 DNS over UDP with a TCP retry on
// truncation. It is deliberately narrow: no caching beyond the
// configuration file, one question per query, and only the first
// usable answer is kept.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/net/dns/dnsmessage"
	"golang.org/x/sync/singleflight"
)

// Family constrains a query to one address family.
type Family uint8

const (
	// FamilyAny resolves whichever family answers first, IPv4
	// taking priority.
	FamilyAny Family = iota
	// FamilyV4 resolves A records only.
	FamilyV4
	// FamilyV6 resolves AAAA records only.
	FamilyV6
	// FamilyV4OrV6 resolves either family, an IPv4 answer taking
	// priority over an IPv6 one.
	FamilyV4OrV6
)

var familyName = map[Family]string{
	FamilyAny:    "any",
	FamilyV4:     "inet",
	FamilyV6:     "inet6",
	FamilyV4OrV6: "inet+inet6",
}

func (f Family) String() string {
	if s, ok := familyName[f]; ok {
		return s
	}
	return "Family=" + strconv.Itoa(int(f)) + "??"
}

// Client resolves host names to single addresses.
type Client struct {
	configGetter func(context.Context) (*Config, error)
	dialFunc     func(ctx context.Context, network, server string) (net.Conn, error)
	nowGetter    func() time.Time // for testing
	soffset      uint32
	lookupGroup  singleflight.Group
}

// ClientOptionFunc configures a Client.
type ClientOptionFunc func(*Client) error

// WithStaticConfig pins the client to a fixed configuration instead
// of reading resolv.conf.
func WithStaticConfig(conf *Config) ClientOptionFunc {
	return func(c *Client) error {
		c.configGetter = func(context.Context) (*Config, error) {
			return conf, nil
		}
		return nil
	}
}

// WithConfigGetter installs a custom configuration source.
func WithConfigGetter(fn func(context.Context) (*Config, error)) ClientOptionFunc {
	return func(c *Client) error {
		if fn == nil {
			return errors.New("nil config getter")
		}
		c.configGetter = fn
		return nil
	}
}

// WithDialFunc installs a custom dialer, e.g. to run queries over a
// test transport. The server argument is always an IP address, never
// a name.
func WithDialFunc(fn func(ctx context.Context, network, server string) (net.Conn, error)) ClientOptionFunc {
	return func(c *Client) error {
		if fn == nil {
			return errors.New("nil dial func")
		}
		c.dialFunc = fn
		return nil
	}
}

// WithNowGetter overrides the clock, for testing timeouts.
func WithNowGetter(fn func() time.Time) ClientOptionFunc {
	return func(c *Client) error {
		c.nowGetter = fn
		return nil
	}
}

// NewClient builds a Client that, by default, follows resolv.conf.
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	loader := newConfigLoader("")
	c := &Client{
		configGetter: func(context.Context) (*Config, error) {
			return loader.get(), nil
		},
		nowGetter: time.Now,
	}
	for _, fn := range options {
		if err := fn(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) now() time.Time {
	return c.nowGetter()
}

// dial makes a new connection to the provided server, which must be
// an IP address, never a name that would recurse into this client.
func (c *Client) dial(ctx context.Context, network, server string) (net.Conn, error) {
	if c.dialFunc != nil {
		conn, err := c.dialFunc(ctx, network, server)
		if err != nil {
			return nil, mapErr(err)
		}
		return conn, nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, server)
	if err != nil {
		return nil, mapErr(err)
	}
	return conn, nil
}

func (c *Client) servers(conf *Config) ([]string, int) {
	var i uint32
	if conf.Rotate {
		i = atomic.AddUint32(&c.soffset, 1) - 1 // return 0 to start
	}
	return conf.Servers, int(i)
}

// QueryAddr resolves name to a single address of the requested
// family. Literal addresses short-circuit the network entirely; a
// literal of the wrong family yields a *net.DNSError reporting no such
// host, with IsNotFound set.
func (c *Client) QueryAddr(ctx context.Context, name string, family Family) (netip.Addr, error) {
	if name == "" {
		return netip.Addr{}, &net.DNSError{Err: ErrNoSuchHost.Error(), Name: name, IsNotFound: true}
	}
	if addr, err := netip.ParseAddr(name); err == nil {
		if !familyAdmits(family, addr) {
			return netip.Addr{}, &net.DNSError{Err: ErrNoSuchHost.Error(), Name: name, IsNotFound: true}
		}
		return addr, nil
	}

	// Concurrent queries for the same name and family share one
	// network exchange.
	ch := c.lookupGroup.DoChan(fmt.Sprintf("%s\x00%d", name, family), func() (any, error) {
		addr, err := c.queryAddrDNS(context.WithoutCancel(ctx), name, family)
		return addr, err
	})
	select {
	case <-ctx.Done():
		return netip.Addr{}, &net.DNSError{Err: mapErr(ctx.Err()).Error(), Name: name}
	case res := <-ch:
		if res.Err != nil {
			return netip.Addr{}, res.Err
		}
		return res.Val.(netip.Addr), nil
	}
}

func familyAdmits(family Family, addr netip.Addr) bool {
	switch family {
	case FamilyV4:
		return addr.Is4()
	case FamilyV6:
		return addr.Is6() && !addr.Is4()
	default:
		return true
	}
}

func (c *Client) queryAddrDNS(ctx context.Context, name string, family Family) (netip.Addr, error) {
	conf, err := c.configGetter(ctx)
	if err != nil {
		return netip.Addr{}, &net.DNSError{Err: err.Error(), Name: name}
	}

	var qtypes []dnsmessage.Type
	switch family {
	case FamilyV4:
		qtypes = []dnsmessage.Type{dnsmessage.TypeA}
	case FamilyV6:
		qtypes = []dnsmessage.Type{dnsmessage.TypeAAAA}
	default:
		// IPv4 preferred.
		qtypes = []dnsmessage.Type{dnsmessage.TypeA, dnsmessage.TypeAAAA}
	}

	var lastErr error
	for _, qtype := range qtypes {
		addr, err := c.lookupType(ctx, conf, name, qtype)
		if err == nil {
			return addr, nil
		}
		if lastErr == nil {
			lastErr = err
		}
	}
	return netip.Addr{}, lastErr
}

func (c *Client) lookupType(ctx context.Context, conf *Config, name string, qtype dnsmessage.Type) (netip.Addr, error) {
	if !isDomainName(name) {
		// For consistency with libc resolvers, report no such
		// host rather than a syntax error.
		return netip.Addr{}, &net.DNSError{Err: ErrNoSuchHost.Error(), Name: name, IsNotFound: true}
	}
	var lastErr error
	for _, fqdn := range conf.nameList(name) {
		p, server, err := c.tryOneName(ctx, conf, fqdn, qtype)
		if err != nil {
			if lastErr == nil || fqdn == name+"." {
				// Prefer the error for the original name.
				lastErr = err
			}
			continue
		}
		addr, err := firstAnswer(&p, qtype)
		if err != nil {
			lastErr = &net.DNSError{Err: err.Error(), Name: name, Server: server}
			continue
		}
		return addr, nil
	}
	if lastErr == nil {
		lastErr = &net.DNSError{Err: ErrNoSuchHost.Error(), Name: name, IsNotFound: true}
	}
	if dnsErr, ok := lastErr.(*net.DNSError); ok {
		// Show the original name, not a suffixed one.
		dnsErr.Name = name
	}
	return netip.Addr{}, lastErr
}

// tryOneName queries every configured server for a single rooted
// name.
func (c *Client) tryOneName(ctx context.Context, conf *Config, name string, qtype dnsmessage.Type) (dnsmessage.Parser, string, error) {
	var lastErr error

	n, err := dnsmessage.NewName(name)
	if err != nil {
		return dnsmessage.Parser{}, "", &net.DNSError{Err: ErrCannotMarshalDNSMessage.Error(), Name: name}
	}
	q := dnsmessage.Question{
		Name:  n,
		Type:  qtype,
		Class: dnsmessage.ClassINET,
	}

	servers, offset := c.servers(conf)

	for i := 0; i < conf.Attempts; i++ {
		for j := 0; j < len(servers); j++ {
			server := servers[(offset+j)%len(servers)]

			p, h, err := c.exchange(ctx, conf, server, q)
			if err != nil {
				dnsErr := &net.DNSError{Err: err.Error(), Name: name, Server: server}
				if _, ok := err.(*net.OpError); ok {
					dnsErr.IsTemporary = true
				}
				lastErr = dnsErr
				continue
			}

			if err := checkHeader(&p, h); err != nil {
				dnsErr := &net.DNSError{Err: err.Error(), Name: name, Server: server}
				if err == ErrNoSuchHost {
					// The name does not exist; trying
					// another server won't help.
					dnsErr.IsNotFound = true
					return p, server, dnsErr
				}
				lastErr = dnsErr
				continue
			}

			if err := skipToAnswer(&p, qtype); err != nil {
				dnsErr := &net.DNSError{Err: err.Error(), Name: name, Server: server}
				if err == ErrNoSuchHost {
					dnsErr.IsNotFound = true
					return p, server, dnsErr
				}
				lastErr = dnsErr
				continue
			}

			return p, server, nil
		}
	}
	return dnsmessage.Parser{}, "", lastErr
}

// firstAnswer extracts the first answer of the queried type. The
// parser is already positioned at a matching answer header.
func firstAnswer(p *dnsmessage.Parser, qtype dnsmessage.Type) (netip.Addr, error) {
	switch qtype {
	case dnsmessage.TypeA:
		a, err := p.AResource()
		if err != nil {
			return netip.Addr{}, ErrCannotUnmarshalDNSMessage
		}
		return netip.AddrFrom4(a.A), nil
	case dnsmessage.TypeAAAA:
		aaaa, err := p.AAAAResource()
		if err != nil {
			return netip.Addr{}, ErrCannotUnmarshalDNSMessage
		}
		return netip.AddrFrom16(aaaa.AAAA), nil
	default:
		return netip.Addr{}, ErrInvalidDNSResponse
	}
}

// isDomainName checks if a string is a presentation-format domain
// name (currently restricted to hostname-compatible "preferred name"
// LDH labels plus SRV-like underscore labels; see RFC 1035 and
// RFC 3696).
func isDomainName(s string) bool {
	// The root domain name is valid. See golang.org/issue/45715.
	if s == "." {
		return true
	}

	// See RFC 1035, RFC 3696.
	// Presentation format has dots before every label except the
	// first, and the terminal empty label is optional here because
	// we assume fully-qualified (rooted) input.
	l := len(s)
	if l == 0 || l > 254 || l == 254 && s[l-1] != '.' {
		return false
	}

	last := byte('.')
	nonNumeric := false // true once we've seen a letter or hyphen
	partlen := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		default:
			return false
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_':
			nonNumeric = true
			partlen++
		case '0' <= c && c <= '9':
			partlen++
		case c == '-':
			// Byte before dash cannot be dot.
			if last == '.' {
				return false
			}
			partlen++
			nonNumeric = true
		case c == '.':
			// Byte before dot cannot be dot, dash.
			if last == '.' || last == '-' {
				return false
			}
			if partlen > 63 || partlen == 0 {
				return false
			}
			partlen = 0
		}
		last = c
	}
	if last == '-' || partlen > 63 {
		return false
	}

	return nonNumeric
}
