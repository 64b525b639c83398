package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
# comment
nameserver 192.0.2.53
nameserver 2001:db8::53 ; trailing comment
search example.com sub.example.com
options ndots:2 timeout:3 attempts:4 rotate use-vc trust-ad
`)
	conf, err := parseConfig(path)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	assert.Equal(t, []string{"192.0.2.53:53", "[2001:db8::53]:53"}, conf.Servers)
	assert.Equal(t, []string{"example.com.", "sub.example.com."}, conf.Search)
	assert.Equal(t, 2, conf.Ndots)
	assert.Equal(t, 3*time.Second, conf.Timeout)
	assert.Equal(t, 4, conf.Attempts)
	assert.True(t, conf.Rotate)
	assert.True(t, conf.UseTCP)
	assert.True(t, conf.TrustAD)
}

func TestParseConfigEmpty(t *testing.T) {
	t.Parallel()

	conf, err := parseConfig(writeConfig(t, "# nothing here\n"))
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	// Fall back to the default servers when none are configured.
	assert.Equal(t, DefaultConfig().Servers, conf.Servers)
}

func TestNameList(t *testing.T) {
	t.Parallel()

	conf := &Config{
		Search: []string{"example.com.", "sub.example.com."},
		Ndots:  1,
	}

	// Rooted names are tried verbatim, and nothing else.
	assert.Equal(t, []string{"host.example.com."}, conf.nameList("host.example.com."))

	// Enough dots: the unsuffixed name goes first.
	assert.Equal(t,
		[]string{"host.example.com.", "host.example.com.example.com.", "host.example.com.sub.example.com."},
		conf.nameList("host.example.com"))

	// Too few dots: suffixes first, unsuffixed last.
	assert.Equal(t,
		[]string{"host.example.com.", "host.sub.example.com.", "host."},
		conf.nameList("host"))

	// DNS is avoided entirely for .onion names.
	assert.Empty(t, conf.nameList("opaque.onion."))

	// Over-long names yield nothing.
	long := make([]byte, 255)
	for i := range long {
		long[i] = 'a'
	}
	assert.Empty(t, conf.nameList(string(long)))
}

func TestConfigLoaderReload(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "nameserver 192.0.2.1\n")
	loader := newConfigLoader(path)

	now := time.Unix(1000, 0)
	loader.nowGetter = func() time.Time { return now }

	conf := loader.get()
	assert.Equal(t, []string{"192.0.2.1:53"}, conf.Servers)

	// Within maxAge the cached config is served even after the
	// file changes.
	if err := os.WriteFile(path, []byte("nameserver 192.0.2.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	conf = loader.get()
	assert.Equal(t, []string{"192.0.2.1:53"}, conf.Servers)

	// Past the cache expiry the new mtime forces a re-read.
	now = now.Add(time.Minute)
	conf = loader.get()
	assert.Equal(t, []string{"192.0.2.2:53"}, conf.Servers)
}

func TestConfigLoaderMissingFile(t *testing.T) {
	t.Parallel()

	loader := newConfigLoader(filepath.Join(t.TempDir(), "missing.conf"))
	conf := loader.get()
	assert.Equal(t, DefaultConfig().Servers, conf.Servers)
}
