package netdb

import (
	"context"
	"log/slog"
	"net/netip"
	"sync/atomic"
)

// Hostent is the legacy host lookup result envelope. Due to resolver
// limits, only one address is ever carried.
type Hostent struct {
	Name     string
	Aliases  []string
	AddrType int
	Length   int
	AddrList []netip.Addr
}

// HostentCopyHook, when set, receives the shared result of
// GetHostByName and its return value is handed to the caller. Ports
// that provide per-thread storage install a copying hook here; by
// default the same storage is returned to everyone.
var HostentCopyHook func(*Hostent) *Hostent

var hErrno atomic.Int32

// HErrno returns the value of the legacy shared error variable, set
// by the last failing GetHostByName call.
func HErrno() int { return int(hErrno.Load()) }

// hostentHelperSize is the part of the caller-supplied scratch buffer
// reserved for the helper record of GetHostByNameR; the remainder
// holds the name copy and its terminator.
const hostentHelperSize = 32

// hostent state shared by all non-reentrant lookups.
var (
	hostentStorage Hostent
	hostentAddr    [1]netip.Addr
	hostentAliases []string
)

// GetHostByName resolves name to a Hostent carrying a single IPv4
// address. On failure it returns nil and records HostNotFound in the
// shared error variable read by HErrno.
//
// The returned pointer refers to shared storage and is overwritten by
// the next call; it is not safe across goroutines unless a
// HostentCopyHook provides per-caller copies.
func (db *DB) GetHostByName(ctx context.Context, name string) *Hostent {
	addr, err := db.resolver.ResolveAddr(ctx, name, FamilyAny)
	if err != nil {
		db.logger.DebugContext(ctx, "gethostbyname failed", slog.String("name", name), slog.Any("error", err))
		hErrno.Store(HostNotFound)
		return nil
	}

	hostentAddr[0] = addr
	hostentStorage = Hostent{
		Name:     truncateName(name),
		Aliases:  hostentAliases,
		AddrType: AFInet,
		Length:   4,
		AddrList: hostentAddr[:],
	}
	if HostentCopyHook != nil {
		return HostentCopyHook(&hostentStorage)
	}
	return &hostentStorage
}

// GetHostByNameR is the reentrant variant of GetHostByName: the
// result envelope and all derived storage live in ret and the
// caller-supplied buf, and errors are returned instead of recorded in
// the shared error variable.
//
// buf must hold the helper record plus a copy of the name; anything
// smaller fails with ErrRange.
func (db *DB) GetHostByNameR(ctx context.Context, name string, ret *Hostent, buf []byte) (*Hostent, error) {
	if ret == nil || buf == nil {
		return nil, ErrArgument
	}
	if len(buf) < hostentHelperSize+len(name)+1 {
		// buf can't hold the helper record plus a copy of name.
		return nil, ErrRange
	}

	addr, err := db.resolver.ResolveAddr(ctx, name, FamilyAny)
	if err != nil {
		db.logger.DebugContext(ctx, "gethostbyname failed", slog.String("name", name), slog.Any("error", err))
		return nil, ErrHostNotFound
	}

	// The helper area keeps the raw address bytes; the rest of the
	// buffer takes the name copy and its terminator.
	a16 := addr.As16()
	copy(buf[:16], a16[:])
	nameBuf := buf[hostentHelperSize : hostentHelperSize+len(name)]
	copy(nameBuf, name)
	buf[hostentHelperSize+len(name)] = 0

	ret.Name = string(nameBuf)
	ret.Aliases = nil
	ret.AddrType = AFInet
	ret.Length = 4
	ret.AddrList = []netip.Addr{addr}
	return ret, nil
}

func truncateName(name string) string {
	if len(name) > maxNodeNameLength {
		return name[:maxNodeNameLength]
	}
	return name
}
