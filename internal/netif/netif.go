// Package netif exposes a minimal view of the local network
// interfaces: per interface, the primary IPv4 address and the
// configured IPv6 addresses. It is consumed by the destination sorter
// to find out which classes of source addresses are available.
package netif

import (
	"net"
	"net/netip"
)

// Interface is a snapshot of the addresses configured on one
// interface. PrimaryV4 is the zero Addr when the interface has no
// IPv4 address.
type Interface struct {
	Name      string
	PrimaryV4 netip.Addr
	V6        []netip.Addr
}

// Enumerator walks a consistent snapshot of the interface set.
type Enumerator interface {
	// ForEachInterface calls visit for each interface, stopping
	// early when visit returns false.
	ForEachInterface(visit func(*Interface) bool)
}

// Static is an Enumerator over a fixed interface list.
type Static []Interface

func (s Static) ForEachInterface(visit func(*Interface) bool) {
	for i := range s {
		if !visit(&s[i]) {
			return
		}
	}
}

type systemEnumerator struct{}

// System returns an Enumerator backed by the host's interfaces. The
// snapshot is taken each time ForEachInterface is called; enumeration
// failures yield an empty set.
func System() Enumerator {
	return systemEnumerator{}
}

func (systemEnumerator) ForEachInterface(visit func(*Interface) bool) {
	ifs, err := net.Interfaces()
	if err != nil {
		return
	}
	for _, ifi := range ifs {
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		e := Interface{Name: ifi.Name}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			a, ok := netip.AddrFromSlice(ipnet.IP)
			if !ok {
				continue
			}
			a = a.Unmap()
			if a.Is4() {
				if !e.PrimaryV4.IsValid() {
					e.PrimaryV4 = a
				}
			} else {
				if a.IsLinkLocalUnicast() {
					a = a.WithZone(ifi.Name)
				}
				e.V6 = append(e.V6, a)
			}
		}
		if !visit(&e) {
			return
		}
	}
}
