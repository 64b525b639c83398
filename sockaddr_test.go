package netdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawSockaddrInet4Bytes(t *testing.T) {
	sa := &RawSockaddrInet4{Port: 443, Addr: [4]byte{198, 51, 100, 121}}
	assert.Equal(t, AFInet, sa.Family())
	assert.Equal(t, []byte{
		0, 2, // family
		1, 187, // port, network byte order
		198, 51, 100, 121, // address
		0, 0, 0, 0, 0, 0, 0, 0, // padding
	}, sa.Bytes())
}

func TestRawSockaddrInet6Bytes(t *testing.T) {
	sa := &RawSockaddrInet6{
		Port: 53,
		Addr: [16]byte{
			0xfe, 0x80, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
		},
		ScopeID: 3,
	}
	assert.Equal(t, AFInet6, sa.Family())
	assert.Equal(t, []byte{
		0, 10, // family
		0, 53, // port, network byte order
		0, 0, 0, 0, // flow info, zeroed
		0xfe, 0x80, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 1,
		0, 0, 0, 3, // scope id
	}, sa.Bytes())
}

func TestSockaddrLenField(t *testing.T) {
	SockaddrLenField = true
	defer func() { SockaddrLenField = false }()

	sa4 := &RawSockaddrInet4{Port: 7, Addr: [4]byte{127, 0, 0, 1}}
	b := sa4.Bytes()
	assert.Equal(t, byte(16), b[0])
	assert.Equal(t, byte(AFInet), b[1])
	assert.Equal(t, []byte{0, 7}, b[2:4])

	sa6 := &RawSockaddrInet6{Port: 7}
	b = sa6.Bytes()
	assert.Equal(t, byte(28), b[0])
	assert.Equal(t, byte(AFInet6), b[1])
}
