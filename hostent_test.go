package netdb

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHostByName(t *testing.T) {
	res := &fakeResolver{
		v4: map[string]netip.Addr{"example.com": netip.MustParseAddr("198.51.100.121")},
	}
	db := newTestDB(t, res, dualStackIfaces())

	h := db.GetHostByName(context.Background(), "example.com")
	if !assert.NotNil(t, h) {
		t.FailNow()
	}
	assert.Equal(t, "example.com", h.Name)
	assert.Empty(t, h.Aliases)
	assert.Equal(t, AFInet, h.AddrType)
	assert.Equal(t, 4, h.Length)
	if assert.Len(t, h.AddrList, 1) {
		assert.Equal(t, netip.MustParseAddr("198.51.100.121"), h.AddrList[0])
	}
}

func TestGetHostByNameNotFound(t *testing.T) {
	res := &fakeResolver{}
	db := newTestDB(t, res, dualStackIfaces())

	h := db.GetHostByName(context.Background(), "nonexistent.invalid")
	assert.Nil(t, h)
	assert.Equal(t, HostNotFound, HErrno())
}

func TestGetHostByNameCopyHook(t *testing.T) {
	res := &fakeResolver{
		v4: map[string]netip.Addr{"example.com": netip.MustParseAddr("198.51.100.121")},
	}
	db := newTestDB(t, res, dualStackIfaces())

	var hooked *Hostent
	HostentCopyHook = func(h *Hostent) *Hostent {
		copied := *h
		hooked = &copied
		return &copied
	}
	defer func() { HostentCopyHook = nil }()

	h := db.GetHostByName(context.Background(), "example.com")
	assert.Same(t, hooked, h)
	assert.NotSame(t, &hostentStorage, h)
	assert.Equal(t, "example.com", h.Name)
}

func TestGetHostByNameR(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{
		v4: map[string]netip.Addr{"example.com": netip.MustParseAddr("198.51.100.121")},
	}
	db := newTestDB(t, res, dualStackIfaces())

	name := "example.com"
	min := hostentHelperSize + len(name) + 1

	// One byte short of the minimum fails before resolving.
	var ret Hostent
	h, err := db.GetHostByNameR(context.Background(), name, &ret, make([]byte, min-1))
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrRange)
	assert.Empty(t, res.calls)

	// Exactly the minimum succeeds.
	buf := make([]byte, min)
	h, err = db.GetHostByNameR(context.Background(), name, &ret, buf)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	assert.Same(t, &ret, h)
	assert.Equal(t, name, h.Name)
	assert.Empty(t, h.Aliases)
	assert.Equal(t, AFInet, h.AddrType)
	assert.Equal(t, 4, h.Length)
	if assert.Len(t, h.AddrList, 1) {
		assert.Equal(t, netip.MustParseAddr("198.51.100.121"), h.AddrList[0])
	}
	// The name copy lives in the caller's buffer, NUL terminated.
	assert.Equal(t, name, string(buf[hostentHelperSize:hostentHelperSize+len(name)]))
	assert.Zero(t, buf[hostentHelperSize+len(name)])
}

func TestGetHostByNameRArguments(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{}
	db := newTestDB(t, res, dualStackIfaces())

	_, err := db.GetHostByNameR(context.Background(), "example.com", nil, make([]byte, 128))
	assert.ErrorIs(t, err, ErrArgument)

	var ret Hostent
	_, err = db.GetHostByNameR(context.Background(), "example.com", &ret, nil)
	assert.ErrorIs(t, err, ErrArgument)
}

func TestGetHostByNameRNotFound(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{}
	db := newTestDB(t, res, dualStackIfaces())

	var ret Hostent
	h, err := db.GetHostByNameR(context.Background(), "nonexistent.invalid", &ret, make([]byte, 512))
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrHostNotFound)
}
