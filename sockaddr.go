package netdb

import "encoding/binary"

// Address family tags of the target socket ABI.
const (
	AFUnspec = 0
	AFInet   = 2
	AFInet6  = 10
)

// SockaddrLenField selects whether encoded socket addresses carry the
// BSD-style length byte in front of a one-byte family tag. It mirrors
// a port-level build switch and must be set before any records are
// encoded.
var SockaddrLenField = false

// Sockaddr is a raw socket address record of one family.
type Sockaddr interface {
	// Family returns the record's address family tag.
	Family() int
	// Bytes encodes the record into the stack's wire layout.
	Bytes() []byte
}

// RawSockaddrInet4 mirrors the stack's sockaddr_in: family tag 2, the
// port and the address in network byte order, zero padding up to 16
// bytes.
type RawSockaddrInet4 struct {
	Port uint16
	Addr [4]byte
}

func (sa *RawSockaddrInet4) Family() int { return AFInet }

func (sa *RawSockaddrInet4) Bytes() []byte {
	b := make([]byte, 16)
	off := putFamily(b, AFInet)
	binary.BigEndian.PutUint16(b[off:], sa.Port)
	copy(b[off+2:], sa.Addr[:])
	return b
}

// RawSockaddrInet6 mirrors the stack's sockaddr_in6: family tag 10,
// port in network byte order, zeroed flow info, the 16-byte address
// and the scope id.
type RawSockaddrInet6 struct {
	Port    uint16
	Addr    [16]byte
	ScopeID uint32
}

func (sa *RawSockaddrInet6) Family() int { return AFInet6 }

func (sa *RawSockaddrInet6) Bytes() []byte {
	b := make([]byte, 28)
	off := putFamily(b, AFInet6)
	binary.BigEndian.PutUint16(b[off:], sa.Port)
	// 32-bit flow info stays zeroed.
	copy(b[off+6:], sa.Addr[:])
	binary.BigEndian.PutUint32(b[off+22:], sa.ScopeID)
	return b
}

// putFamily writes the family tag, optionally preceded by the length
// byte, and returns the offset of the first field after the tag.
func putFamily(b []byte, family int) int {
	if SockaddrLenField {
		b[0] = byte(len(b))
		b[1] = byte(family)
		return 2
	}
	binary.BigEndian.PutUint16(b, uint16(family))
	return 2
}
