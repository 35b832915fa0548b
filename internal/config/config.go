// Package config parses the router's command-line surface: repeatable
// -p interface attachments and -r route installations, plus the worker
// placement policy flags. It mirrors the source's parse_args, but
// accumulates entries with a typed dynamic sequence instead of an
// untyped pointer list, and returns syntax errors instead of exiting (the
// flag set still prints its usage text when a flag value fails to parse).
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/packetwire/dprouter/internal/iface"
	"github.com/packetwire/dprouter/internal/seqlist"
)

// ErrSyntax is wrapped by every parse failure, matching spec.md §7's
// "configuration parse error" kind.
var ErrSyntax = errors.New("config: syntax error")

// Route is one -r entry before it is installed into a FIB: the
// destination prefix, the next-hop MAC, and the egress interface id.
type Route struct {
	Prefix  netip.Prefix
	NextHop [6]byte
	Iface   uint8
}

// Config is the fully parsed command line.
type Config struct {
	Interfaces []iface.Config
	Routes     []Route

	// ReservedCores is how many logical cores are held back from the
	// forwarding pool (e.g. for the dispatcher/control thread).
	ReservedCores int

	// MasterDoesWork, when true, lets the reserved master core also run
	// a forwarding worker instead of sitting idle (spec.md §9's
	// master-core policy knob).
	MasterDoesWork bool
}

// ifaceFlag accumulates repeated -p values.
type ifaceFlag struct {
	list *seqlist.List[iface.Config]
}

func (f ifaceFlag) String() string { return "" }

func (f ifaceFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("%w: -p %q: want <iface>,<ipv4>", ErrSyntax, s)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return fmt.Errorf("%w: -p %q: bad interface id: %v", ErrSyntax, s, err)
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(parts[1]))
	if err != nil || !addr.Is4() {
		return fmt.Errorf("%w: -p %q: bad IPv4 address", ErrSyntax, s)
	}
	f.list.Append(iface.Config{ID: uint8(id), Addr: addr})
	return nil
}

// routeFlag accumulates repeated -r values.
type routeFlag struct {
	list *seqlist.List[Route]
}

func (f routeFlag) String() string { return "" }

func (f routeFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("%w: -r %q: want <ipv4>/<cidr>,<mac>,<iface>", ErrSyntax, s)
	}
	prefix, err := netip.ParsePrefix(strings.TrimSpace(parts[0]))
	if err != nil || !prefix.Addr().Is4() {
		return fmt.Errorf("%w: -r %q: bad IPv4 prefix", ErrSyntax, s)
	}
	mac, err := net.ParseMAC(strings.TrimSpace(parts[1]))
	if err != nil || len(mac) != 6 {
		return fmt.Errorf("%w: -r %q: bad MAC address", ErrSyntax, s)
	}
	ifaceID, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 8)
	if err != nil {
		return fmt.Errorf("%w: -r %q: bad interface id: %v", ErrSyntax, s, err)
	}
	var macArr [6]byte
	copy(macArr[:], mac)
	f.list.Append(Route{Prefix: prefix.Masked(), NextHop: macArr, Iface: uint8(ifaceID)})
	return nil
}

// Parse parses args (typically os.Args[1:]) into a Config. A returned
// error always wraps ErrSyntax.
func Parse(name string, args []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var ifaces seqlist.List[iface.Config]
	var routes seqlist.List[Route]
	fs.Var(ifaceFlag{&ifaces}, "p", "attach interface: <iface>,<ipv4> (repeatable)")
	fs.Var(routeFlag{&routes}, "r", "install route: <ipv4>/<cidr>,<mac>,<iface> (repeatable)")
	reserved := fs.Int("reserved-cores", 1, "logical cores held back from the forwarding pool")
	masterWorks := fs.Bool("master-does-work", false, "let the reserved master core also forward traffic")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	if *reserved < 0 {
		return Config{}, fmt.Errorf("%w: -reserved-cores must not be negative", ErrSyntax)
	}

	return Config{
		Interfaces:     ifaces.Snapshot(),
		Routes:         routes.Snapshot(),
		ReservedCores:  *reserved,
		MasterDoesWork: *masterWorks,
	}, nil
}
