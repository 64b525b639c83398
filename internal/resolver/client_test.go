package resolver

import (
	"bytes"
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/dns/dnsmessage"
)

// fakeDNSConn answers TCP-framed queries from a fixed A/AAAA table.
type fakeDNSConn struct {
	a    map[string][4]byte
	aaaa map[string][16]byte
	buf  bytes.Buffer
}

func (c *fakeDNSConn) Write(b []byte) (int, error) {
	msg := b[2:] // strip the stream length prefix
	var p dnsmessage.Parser
	h, err := p.Start(msg)
	if err != nil {
		return 0, err
	}
	q, err := p.Question()
	if err != nil {
		return 0, err
	}

	name := q.Name.String()
	rcode := dnsmessage.RCodeSuccess
	_, hasA := c.a[name]
	_, hasAAAA := c.aaaa[name]
	if !hasA && !hasAAAA {
		rcode = dnsmessage.RCodeNameError
	}

	rb := dnsmessage.NewBuilder(make([]byte, 2, 514), dnsmessage.Header{
		ID:                 h.ID,
		Response:           true,
		Authoritative:      true,
		RecursionAvailable: true,
		RCode:              rcode,
	})
	if err := rb.StartQuestions(); err != nil {
		return 0, err
	}
	if err := rb.Question(q); err != nil {
		return 0, err
	}
	if err := rb.StartAnswers(); err != nil {
		return 0, err
	}
	rh := dnsmessage.ResourceHeader{Name: q.Name, Type: q.Type, Class: q.Class, TTL: 300}
	if q.Type == dnsmessage.TypeA && hasA {
		if err := rb.AResource(rh, dnsmessage.AResource{A: c.a[name]}); err != nil {
			return 0, err
		}
	}
	if q.Type == dnsmessage.TypeAAAA && hasAAAA {
		if err := rb.AAAAResource(rh, dnsmessage.AAAAResource{AAAA: c.aaaa[name]}); err != nil {
			return 0, err
		}
	}
	out, err := rb.Finish()
	if err != nil {
		return 0, err
	}
	l := len(out) - 2
	out[0] = byte(l >> 8)
	out[1] = byte(l)
	c.buf.Write(out)
	return len(b), nil
}

func (c *fakeDNSConn) Read(b []byte) (int, error)         { return c.buf.Read(b) }
func (c *fakeDNSConn) Close() error                       { return nil }
func (c *fakeDNSConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fakeDNSConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fakeDNSConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeDNSConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeDNSConn) SetWriteDeadline(t time.Time) error { return nil }

func newFakeClient(t *testing.T, conn *fakeDNSConn) *Client {
	t.Helper()
	conf := DefaultConfig()
	conf.Servers = []string{"192.0.2.53:53"}
	conf.Attempts = 1
	conf.UseTCP = true
	conf.EDNS0 = false
	c, err := NewClient(
		WithStaticConfig(&conf),
		WithDialFunc(func(ctx context.Context, network, server string) (net.Conn, error) {
			assert.Equal(t, "tcp", network)
			assert.Equal(t, "192.0.2.53:53", server)
			return conn, nil
		}),
	)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return c
}

func TestQueryAddr(t *testing.T) {
	t.Parallel()

	conn := &fakeDNSConn{
		a:    map[string][4]byte{"host.example.com.": {198, 51, 100, 121}},
		aaaa: map[string][16]byte{"dual.example.com.": netip.MustParseAddr("2001:db8:1::1").As16()},
	}
	c := newFakeClient(t, conn)

	addr, err := c.QueryAddr(context.Background(), "host.example.com", FamilyV4)
	if assert.NoError(t, err) {
		assert.Equal(t, netip.MustParseAddr("198.51.100.121"), addr)
	}

	addr, err = c.QueryAddr(context.Background(), "dual.example.com", FamilyV6)
	if assert.NoError(t, err) {
		assert.Equal(t, netip.MustParseAddr("2001:db8:1::1"), addr)
	}

	// A name with only an AAAA record has no A answer.
	_, err = c.QueryAddr(context.Background(), "dual.example.com", FamilyV4)
	assert.Error(t, err)

	// NXDOMAIN surfaces as a not-found DNS error.
	_, err = c.QueryAddr(context.Background(), "nonexistent.example.com", FamilyV4)
	var dnsErr *net.DNSError
	if assert.ErrorAs(t, err, &dnsErr) {
		assert.True(t, dnsErr.IsNotFound)
		assert.Equal(t, "nonexistent.example.com", dnsErr.Name)
	}
}

func TestQueryAddrLiteral(t *testing.T) {
	t.Parallel()

	// Literals never touch the network; the dialer would fail the
	// test if consulted.
	c, err := NewClient(WithDialFunc(func(ctx context.Context, network, server string) (net.Conn, error) {
		t.Error("dialer must not be used for literals")
		return nil, ErrNoAnswerFromDNSServer
	}))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	addr, err := c.QueryAddr(context.Background(), "192.0.2.1", FamilyV4)
	if assert.NoError(t, err) {
		assert.Equal(t, netip.MustParseAddr("192.0.2.1"), addr)
	}

	addr, err = c.QueryAddr(context.Background(), "2001:db8::1", FamilyAny)
	if assert.NoError(t, err) {
		assert.Equal(t, netip.MustParseAddr("2001:db8::1"), addr)
	}

	// A literal of the wrong family is no such host.
	_, err = c.QueryAddr(context.Background(), "192.0.2.1", FamilyV6)
	var dnsErr *net.DNSError
	if assert.ErrorAs(t, err, &dnsErr) {
		assert.True(t, dnsErr.IsNotFound)
	}

	_, err = c.QueryAddr(context.Background(), "2001:db8::1", FamilyV4)
	assert.Error(t, err)
}

func TestQueryAddrEmptyName(t *testing.T) {
	t.Parallel()

	c, err := NewClient()
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	_, err = c.QueryAddr(context.Background(), "", FamilyAny)
	assert.Error(t, err)
}

func TestIsDomainName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ok   bool
	}{
		{"example.com", true},
		{"example.com.", true},
		{".", true},
		{"", false},
		{"_sip._tcp.example.com", true},
		{"-example.com", false},
		{"example-.com", false},
		{"ex..ample.com", false},
		{"123.example.com", true},
		{"123.456", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, isDomainName(c.name), "%q", c.name)
	}
}

func TestFamilyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "inet", FamilyV4.String())
	assert.Equal(t, "inet6", FamilyV6.String())
	assert.Equal(t, "any", FamilyAny.String())
}
