package addrsort

import (
	"net/netip"
	"slices"

	"github.com/moriyoshi/go-netdb/internal/netif"
)

// SortDestinations orders dests so that the most preferred destination
// comes first, based on which classes of source addresses are
// configured on the local interfaces. Lists of zero or one entries
// are returned as is, without touching the interface state.
//
// The resolver hands over at most one IPv4 and one IPv6 destination,
// so the usual input here is a pair; the signature stays generic and
// the comparator holds for longer lists as well.
func SortDestinations(dests []netip.Addr, ifaces netif.Enumerator) {
	if len(dests) <= 1 {
		return
	}
	Sort(dests, Summarize(ifaces))
}

// Sort orders dests by Compare under the given summary, most
// preferred first. The comparator is a total preorder, so any sort
// algorithm would do; a stable sort keeps rule 10 ties in input
// order. Addresses are widened to their v6-shaped form for the
// comparison only; the list keeps its original representations.
func Sort(dests []netip.Addr, sum Summary) {
	slices.SortStableFunc(dests, func(a, b netip.Addr) int {
		return -Compare(a.As16(), b.As16(), sum)
	})
}
