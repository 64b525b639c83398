package addrsort

import (
	"net/netip"

	"github.com/moriyoshi/go-netdb/internal/netif"
)

// maxCandidateSources bounds the number of source addresses sampled
// while building a summary, to keep the scan cheap on hosts with many
// interfaces. Up to four addresses per interface is typical, so 24
// covers six fully populated interfaces.
const maxCandidateSources = 24

// Summary records which classes of source addresses are configured on
// the local interfaces, as three bitmasks indexed by 1<<value. A set
// bit means at least one source of that classification exists
// somewhere; the summary does not identify which interface, nor which
// source would win source address selection.
type Summary struct {
	V6Scopes uint32
	V4Scopes uint32
	Labels   uint32
}

// Add samples one source address into the summary. IPv4 sources are
// widened to their IPv4-mapped form first and counted against the
// IPv4 scope mask.
func (s *Summary) Add(src netip.Addr) {
	a := src.As16()
	s.Labels |= 1 << LabelOf(a)
	if isV4Mapped(a) {
		s.V4Scopes |= 1 << ScopeOf(a)
	} else {
		s.V6Scopes |= 1 << ScopeOf(a)
	}
}

func (s Summary) scopeMatch(a [16]byte, scope Scope) bool {
	m := s.V6Scopes
	if isV4Mapped(a) {
		m = s.V4Scopes
	}
	return m&(1<<scope) != 0
}

func (s Summary) labelMatch(label Label) bool {
	return s.Labels&(1<<label) != 0
}

// Summarize collects the candidate source addresses from all
// interfaces and folds them into a Summary. Zero (unset) IPv4 slots
// and unspecified IPv6 slots are skipped, and the scan stops sampling
// after maxCandidateSources addresses.
func Summarize(ifaces netif.Enumerator) Summary {
	var sum Summary
	n := 0
	ifaces.ForEachInterface(func(ifi *netif.Interface) bool {
		if ifi.PrimaryV4.IsValid() && !ifi.PrimaryV4.IsUnspecified() && n < maxCandidateSources {
			sum.Add(ifi.PrimaryV4)
			n++
		}
		for _, a := range ifi.V6 {
			if a.IsValid() && !a.IsUnspecified() && n < maxCandidateSources {
				sum.Add(a)
				n++
			}
		}
		return true
	})
	return sum
}
