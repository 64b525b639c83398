// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolver

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const resolvConfPath = "/etc/resolv.conf"

// Config holds the name server configuration the client queries with.
type Config struct {
	Servers  []string      // name servers to use, as host:port
	Search   []string      // rooted suffixes to append to local names
	Ndots    int           // number of dots in name to trigger absolute lookup
	Timeout  time.Duration // wait before giving up on a query
	Attempts int           // lost packets before giving up on a server
	Rotate   bool          // round robin among servers
	UseTCP   bool          // force TCP for DNS resolution
	TrustAD  bool          // add the AD flag to queries
	EDNS0    bool          // advertise a larger receive buffer via EDNS0
}

// DefaultConfig returns the configuration used when resolv.conf is
// missing or unreadable.
func DefaultConfig() Config {
	return Config{
		Servers:  []string{"127.0.0.1:53", "[::1]:53"},
		Ndots:    1,
		Timeout:  5 * time.Second,
		Attempts: 2,
		EDNS0:    true,
	}
}

// nameList returns the list of names to try for sequential queries.
func (conf *Config) nameList(name string) []string {
	// Check name length (see isDomainName).
	l := len(name)
	rooted := l > 0 && name[l-1] == '.'
	if l > 254 || l == 254 && !rooted {
		return nil
	}

	// If name is rooted (trailing dot), try only that name.
	if rooted {
		if avoidDNS(name) {
			return nil
		}
		return []string{name}
	}

	hasNdots := strings.Count(name, ".") >= conf.Ndots
	name += "."

	// Build the list of search choices.
	names := make([]string, 0, 1+len(conf.Search))
	// If name has enough dots, try unsuffixed first.
	if hasNdots && !avoidDNS(name) {
		names = append(names, name)
	}
	// Try suffixes that are not too long (see isDomainName).
	for _, suffix := range conf.Search {
		fqdn := name + suffix
		if !avoidDNS(fqdn) && len(fqdn) <= 254 {
			names = append(names, fqdn)
		}
	}
	// Try unsuffixed, if not tried first above.
	if !hasNdots && !avoidDNS(name) {
		names = append(names, name)
	}
	return names
}

func domainSuffix(name string) string {
	if len(name) == 0 {
		return ""
	}
	if name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	i := strings.LastIndexByte(name, '.')
	if i == -1 {
		return ""
	}
	return name[i:]
}

// avoidDNS reports whether this is a hostname for which DNS must not
// be used. Currently this covers only .onion names, per RFC 7686.
func avoidDNS(name string) bool {
	return strings.EqualFold(domainSuffix(name), ".onion")
}

// parseConfig reads a resolv.conf style file. Unknown directives and
// options are ignored.
func parseConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := DefaultConfig()
	conf.Servers = nil

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "nameserver":
			if len(fields) > 1 && len(conf.Servers) < 3 {
				conf.Servers = append(conf.Servers, joinHostPort(fields[1]))
			}
		case "search", "domain":
			conf.Search = conf.Search[:0]
			for _, suffix := range fields[1:] {
				conf.Search = append(conf.Search, ensureRooted(suffix))
			}
		case "options":
			for _, opt := range fields[1:] {
				switch {
				case strings.HasPrefix(opt, "ndots:"):
					if n, err := strconv.Atoi(opt[6:]); err == nil && n >= 0 {
						if n > 15 {
							n = 15
						}
						conf.Ndots = n
					}
				case strings.HasPrefix(opt, "timeout:"):
					if n, err := strconv.Atoi(opt[8:]); err == nil && n > 0 {
						conf.Timeout = time.Duration(n) * time.Second
					}
				case strings.HasPrefix(opt, "attempts:"):
					if n, err := strconv.Atoi(opt[9:]); err == nil && n > 0 {
						conf.Attempts = n
					}
				case opt == "rotate":
					conf.Rotate = true
				case opt == "use-vc", opt == "usevc", opt == "tcp":
					conf.UseTCP = true
				case opt == "trust-ad":
					conf.TrustAD = true
				case opt == "edns0":
					conf.EDNS0 = true
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(conf.Servers) == 0 {
		conf.Servers = DefaultConfig().Servers
	}
	return &conf, nil
}

func joinHostPort(server string) string {
	if strings.Count(server, ":") >= 2 && !strings.HasPrefix(server, "[") {
		// Bare IPv6 address.
		return "[" + server + "]:53"
	}
	if strings.Contains(server, ":") {
		// Already has a port.
		return server
	}
	return server + ":53"
}

func ensureRooted(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

// configLoader caches a parsed resolv.conf and refreshes it when the
// file's mtime changes, rechecking at most every maxAge.
type configLoader struct {
	path      string
	maxAge    time.Duration
	nowGetter func() time.Time

	mu        sync.Mutex // serialises recheck of the file
	expiry    time.Time
	lastMtime time.Time
	conf      atomic.Pointer[Config]
}

func newConfigLoader(path string) *configLoader {
	if path == "" {
		path = resolvConfPath
	}
	return &configLoader{
		path:      path,
		maxAge:    5 * time.Second,
		nowGetter: time.Now,
	}
}

func (l *configLoader) get() *Config {
	conf := l.conf.Load()
	now := l.nowGetter()

	l.mu.Lock()
	defer l.mu.Unlock()
	if conf != nil && now.Before(l.expiry) {
		return conf
	}
	l.expiry = now.Add(l.maxAge)

	fi, err := os.Stat(l.path)
	if err == nil && conf != nil && fi.ModTime().Equal(l.lastMtime) {
		return conf
	}
	if err == nil {
		l.lastMtime = fi.ModTime()
	}
	parsed, err := parseConfig(l.path)
	if err != nil {
		if conf != nil {
			return conf
		}
		def := DefaultConfig()
		parsed = &def
	}
	l.conf.Store(parsed)
	return parsed
}
