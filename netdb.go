// Package netdb is the name resolution front end of the stack: it
// turns a host name and an optional numeric service into a chain of
// socket-ready addresses, ordering dual-stack results with the
// destination address selection rules of RFC 6724.
//
// The DNS resolver itself sits behind the Resolver interface and
// returns at most one address per family, so a result chain never
// exceeds two entries.
package netdb

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strconv"

	"github.com/moriyoshi/go-netdb/internal/addrsort"
	"github.com/moriyoshi/go-netdb/internal/logging"
	"github.com/moriyoshi/go-netdb/internal/netif"
)

// maxNodeNameLength is the longest node name accepted, the 253 octet
// limit of a full DNS name in presentation form.
const maxNodeNameLength = 253

// DB resolves names into address chains.
type DB struct {
	resolver    Resolver
	ifaces      netif.Enumerator
	logger      *slog.Logger
	pool        *entryPool
	dynamicSort bool
}

// OptionFunc configures a DB.
type OptionFunc func(*DB) error

// WithResolver installs the resolver back end.
func WithResolver(r Resolver) OptionFunc {
	return func(db *DB) error {
		if r == nil {
			return errors.New("nil resolver")
		}
		db.resolver = r
		return nil
	}
}

// WithInterfaces installs the interface enumerator consulted by the
// destination sorter.
func WithInterfaces(e netif.Enumerator) OptionFunc {
	return func(db *DB) error {
		if e == nil {
			return errors.New("nil interface enumerator")
		}
		db.ifaces = e
		return nil
	}
}

// WithLogger installs a logger; the default discards everything.
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(db *DB) error {
		db.logger = logger
		return nil
	}
}

// WithDynamicSort enables or disables RFC 6724 ordering of dual-stack
// results. When disabled, an unspecified-family lookup asks the
// resolver for either family and consumes the single answer.
func WithDynamicSort(v bool) OptionFunc {
	return func(db *DB) error {
		db.dynamicSort = v
		return nil
	}
}

// WithPoolLimit caps the number of live result entries.
func WithPoolLimit(n int) OptionFunc {
	return func(db *DB) error {
		if n < 1 {
			return errors.New("pool limit must be positive")
		}
		db.pool = newEntryPool(n)
		return nil
	}
}

// New builds a DB. Without options it resolves through the built-in
// DNS client and sorts against the host's interfaces.
func New(options ...OptionFunc) (*DB, error) {
	db := &DB{
		logger:      logging.Discard(),
		ifaces:      netif.System(),
		pool:        newEntryPool(defaultPoolLimit),
		dynamicSort: true,
	}
	for _, fn := range options {
		if err := fn(db); err != nil {
			return nil, err
		}
	}
	if db.resolver == nil {
		r, err := DefaultResolver()
		if err != nil {
			return nil, err
		}
		db.resolver = r
	}
	return db, nil
}

// GetAddrInfo translates a node name and/or a numeric service into a
// chain of socket addresses. At least one of node and service must be
// non-empty. Only decimal port numbers are accepted as the service;
// service names are not supported.
//
// The returned chain is owned by the caller and must be released with
// FreeAddrInfo.
func (db *DB) GetAddrInfo(ctx context.Context, node, service string, hints *Hints) (*AddrInfo, error) {
	if node == "" && service == "" {
		return nil, ErrNoName
	}

	family := AFUnspec
	flags := 0
	if hints != nil {
		family = hints.Family
		flags = hints.Flags
		if family != AFUnspec && family != AFInet && family != AFInet6 {
			return nil, ErrFamily
		}
	}

	port := 0
	if service != "" {
		// Only ASCII port numbers are supported, as if
		// AI_NUMERICSERV were always set.
		p, err := strconv.Atoi(service)
		if err != nil || p < 0 || p > 0xffff {
			return nil, ErrService
		}
		port = p
	}

	var addrs []netip.Addr
	if node != "" {
		var err error
		addrs, err = db.lookupNode(ctx, node, family, flags)
		if err != nil {
			return nil, err
		}
		if len(node) > maxNodeNameLength {
			return nil, ErrFail
		}
	} else {
		// No node given: hand back a local address to bind or
		// connect against.
		var a netip.Addr
		if flags&AIPassive != 0 {
			if family == AFInet6 {
				a = netip.IPv6Unspecified()
			} else {
				a = netip.AddrFrom4([4]byte{})
			}
		} else {
			if family == AFInet6 {
				a = netip.IPv6Loopback()
			} else {
				a = netip.AddrFrom4([4]byte{127, 0, 0, 1})
			}
		}
		addrs = []netip.Addr{a}
	}

	// Build the chain in reverse so each entry links the previous
	// head; the result comes out in sorted order with no reversal
	// pass.
	var head *AddrInfo
	for i := len(addrs) - 1; i >= 0; i-- {
		ai := db.pool.get()
		if ai == nil {
			FreeAddrInfo(head)
			return nil, ErrMemory
		}
		fillEntry(ai, addrs[i], port, node, hints)
		ai.Next = head
		head = ai
	}
	db.logger.DebugContext(ctx, "getaddrinfo", slog.String("node", node), slog.String("service", service), slog.Any("addrs", addrs))
	return head, nil
}

func (db *DB) lookupNode(ctx context.Context, node string, family, flags int) ([]netip.Addr, error) {
	if flags&AINumericHost != 0 {
		// No DNS lookup; just parse the address literal.
		a, err := netip.ParseAddr(node)
		if err != nil {
			return nil, ErrNoName
		}
		if a.Is4() {
			if family == AFInet6 {
				return nil, ErrNoName
			}
		} else if family == AFInet {
			return nil, ErrNoName
		}
		return []netip.Addr{a}, nil
	}

	switch {
	case family == AFUnspec && db.dynamicSort:
		var addrs []netip.Addr
		if a6, err := db.resolver.ResolveAddr(ctx, node, FamilyV6); err == nil {
			addrs = append(addrs, a6)
		}
		if a4, err := db.resolver.ResolveAddr(ctx, node, FamilyV4); err == nil {
			addrs = append(addrs, a4)
		}
		if len(addrs) == 0 {
			return nil, ErrFail
		}
		addrsort.SortDestinations(addrs, db.ifaces)
		return addrs, nil
	case family == AFUnspec:
		// Dynamic sorting disabled: one request for either
		// family, one answer consumed.
		a, err := db.resolver.ResolveAddr(ctx, node, FamilyV4orV6)
		if err != nil {
			return nil, ErrFail
		}
		return []netip.Addr{a}, nil
	default:
		constraint := FamilyV4
		if family == AFInet6 {
			constraint = FamilyV6
		}
		a, err := db.resolver.ResolveAddr(ctx, node, constraint)
		if err != nil {
			return nil, ErrFail
		}
		return []netip.Addr{a}, nil
	}
}

func fillEntry(ai *AddrInfo, a netip.Addr, port int, node string, hints *Hints) {
	if a.Is4() {
		ai.Family = AFInet
		ai.Addr = &RawSockaddrInet4{
			Port: uint16(port),
			Addr: a.As4(),
		}
	} else {
		ai.Family = AFInet6
		ai.Addr = &RawSockaddrInet6{
			Port:    uint16(port),
			Addr:    a.As16(),
			ScopeID: zoneIndex(a.Zone()),
		}
	}
	if hints != nil {
		// Carry socktype and protocol through from the hints.
		ai.SockType = hints.SockType
		ai.Protocol = hints.Protocol
	}
	if node != "" {
		ai.CanonName = node
	}
}

// zoneIndex maps an address zone to a numeric scope id: numeric zones
// are used as is, named zones are resolved to the interface index.
func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n)
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	return 0
}
