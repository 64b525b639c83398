package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	netdb "github.com/moriyoshi/go-netdb"
	"github.com/moriyoshi/go-netdb/internal/resolver"
)

const appName = "netdbq"

// fileConfig is the YAML configuration read with --config.
type fileConfig struct {
	Nameservers []string          `yaml:"nameservers"`
	Timeout     time.Duration     `yaml:"timeout"`
	Attempts    int               `yaml:"attempts"`
	Hosts       map[string]string `yaml:"hosts"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf fileConfig
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &conf, nil
}

// staticHostsResolver serves configured host entries before handing
// the query to the wrapped resolver.
type staticHostsResolver struct {
	hosts map[string]netip.Addr
	next  netdb.Resolver
}

func (r *staticHostsResolver) ResolveAddr(ctx context.Context, name string, constraint netdb.FamilyConstraint) (netip.Addr, error) {
	if a, ok := r.hosts[name]; ok {
		match := true
		switch constraint {
		case netdb.FamilyV4:
			match = a.Is4()
		case netdb.FamilyV6:
			match = a.Is6() && !a.Is4()
		}
		if match {
			return a, nil
		}
	}
	return r.next.ResolveAddr(ctx, name, constraint)
}

type CLI struct {
	Config      string        `name:"config" help:"Path to the configuration file." env:"NETDBQ_CONFIG" optional:""`
	Service     string        `name:"service" short:"s" help:"Numeric service (port number)." optional:""`
	Family      string        `name:"family" short:"f" help:"Address family to request." enum:"any,inet,inet6" default:"any"`
	NumericHost bool          `name:"numeric-host" help:"Treat the node as an address literal, skipping DNS."`
	Passive     bool          `name:"passive" help:"Return the any-address for binding when no node is given."`
	NoSort      bool          `name:"no-sort" help:"Disable RFC 6724 ordering of dual-stack results."`
	Nameservers []string      `name:"nameservers" help:"DNS servers to use for resolving." env:"NETDBQ_NAMESERVERS"`
	Timeout     time.Duration `name:"timeout" help:"Per-query timeout." default:"5s"`
	LogLevel    slog.Level    `name:"log-level" help:"Log level." env:"NETDBQ_LOG_LEVEL" default:"INFO" enum:"DEBUG,INFO,WARN,ERROR"`
	Node        string        `arg:"" name:"node" help:"Host name to resolve." optional:""`
}

func (CLI *CLI) initLogger(*kong.Context) *slog.Logger {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{Level: CLI.LogLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: CLI.LogLevel})
	}
	return slog.New(handler)
}

func (CLI *CLI) initResolver(kongCtx *kong.Context, logger *slog.Logger, fconf *fileConfig) netdb.Resolver {
	servers := append([]string(nil), CLI.Nameservers...)
	if len(servers) == 0 && fconf != nil {
		servers = append(servers, fconf.Nameservers...)
	}

	var res netdb.Resolver
	if len(servers) > 0 {
		dnsConf := resolver.DefaultConfig()
		for i := range servers {
			if _, _, err := net.SplitHostPort(servers[i]); err != nil {
				host, port, err := net.SplitHostPort(servers[i] + ":53")
				if err != nil {
					kongCtx.FatalIfErrorf(fmt.Errorf("invalid DNS server address: %s", servers[i]))
				}
				servers[i] = net.JoinHostPort(host, port)
			}
		}
		dnsConf.Servers = servers
		dnsConf.Timeout = CLI.Timeout
		if fconf != nil && fconf.Timeout > 0 {
			dnsConf.Timeout = fconf.Timeout
		}
		if fconf != nil && fconf.Attempts > 0 {
			dnsConf.Attempts = fconf.Attempts
		}
		c, err := resolver.NewClient(resolver.WithStaticConfig(&dnsConf))
		if err != nil {
			kongCtx.FatalIfErrorf(err)
		}
		logger.Info("with custom DNS servers", slog.Any("servers", servers))
		res = netdb.WrapClient(c)
	} else {
		var err error
		res, err = netdb.DefaultResolver()
		if err != nil {
			kongCtx.FatalIfErrorf(err)
		}
	}

	if fconf != nil && len(fconf.Hosts) > 0 {
		hosts := make(map[string]netip.Addr, len(fconf.Hosts))
		for name, lit := range fconf.Hosts {
			a, err := netip.ParseAddr(lit)
			if err != nil {
				kongCtx.FatalIfErrorf(fmt.Errorf("invalid host entry %q: %w", name, err))
			}
			hosts[name] = a
		}
		res = &staticHostsResolver{hosts: hosts, next: res}
	}
	return res
}

func (CLI *CLI) hints() *netdb.Hints {
	hints := &netdb.Hints{}
	switch CLI.Family {
	case "inet":
		hints.Family = netdb.AFInet
	case "inet6":
		hints.Family = netdb.AFInet6
	}
	if CLI.NumericHost {
		hints.Flags |= netdb.AINumericHost
	}
	if CLI.Passive {
		hints.Flags |= netdb.AIPassive
	}
	return hints
}

func main() {
	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name(appName),
		kong.Description("Resolve a host name into a sorted socket address chain."),
	)
	logger := cli.initLogger(kongCtx)

	var fconf *fileConfig
	if cli.Config != "" {
		var err error
		fconf, err = loadFileConfig(cli.Config)
		if err != nil {
			kongCtx.FatalIfErrorf(err)
		}
	}

	res := cli.initResolver(kongCtx, logger, fconf)
	db, err := netdb.New(
		netdb.WithResolver(res),
		netdb.WithLogger(logger),
		netdb.WithDynamicSort(!cli.NoSort),
	)
	if err != nil {
		kongCtx.FatalIfErrorf(err)
	}

	ctx := context.Background()
	ai, err := db.GetAddrInfo(ctx, cli.Node, cli.Service, cli.hints())
	if err != nil {
		logger.Error("resolution failed", slog.String("node", cli.Node), slog.Any("error", err))
		os.Exit(1)
	}
	defer netdb.FreeAddrInfo(ai)

	for e := ai; e != nil; e = e.Next {
		fmt.Printf("family=%d socktype=%d protocol=%d addr=%x canonname=%s\n",
			e.Family, e.SockType, e.Protocol, e.Addr.Bytes(), e.CanonName)
	}
}
