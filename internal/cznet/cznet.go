// Package cznet normalizes textual IP addresses into the fixed-width
// big-endian byte vectors used by the CZDB column index.
package cznet

import (
	"fmt"
	"net/netip"

	"github.com/AdguardTeam/golibs/netutil"
	"github.com/cz88/czdb-go/internal/czerr"
)

// AddrWidth returns the width of an address of family fam in bytes.  fam
// must be either [netutil.AddrFamilyIPv4] or [netutil.AddrFamilyIPv6].
func AddrWidth(fam netutil.AddrFamily) (n int) {
	switch fam {
	case netutil.AddrFamilyIPv4:
		return 4
	case netutil.AddrFamilyIPv6:
		return 16
	default:
		panic(fmt.Errorf("cznet: unsupported addr fam %s", fam))
	}
}

// ParseAddr parses s and returns its big-endian bytes, 4 for an IPv4
// database and 16 for an IPv6 one.  IPv4-mapped IPv6 forms are rejected for
// both families.  Addresses of the wrong family, as well as unparsable ones,
// result in an error wrapping [czerr.ErrInvalidAddress].
func ParseAddr(s string, fam netutil.AddrFamily) (addr []byte, err error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		// Don't include the parsing error, the sentinel is informative
		// enough, and the original error duplicates the address.
		return nil, fmt.Errorf("%q: %w", s, czerr.ErrInvalidAddress)
	}

	if ip.Is4In6() {
		return nil, fmt.Errorf("%q: ipv4-mapped ipv6: %w", s, czerr.ErrInvalidAddress)
	}

	if ip.Zone() != "" {
		return nil, fmt.Errorf("%q: zoned address: %w", s, czerr.ErrInvalidAddress)
	}

	switch fam {
	case netutil.AddrFamilyIPv4:
		if !ip.Is4() {
			return nil, fmt.Errorf("%q: not ipv4: %w", s, czerr.ErrInvalidAddress)
		}

		a := ip.As4()

		return a[:], nil
	case netutil.AddrFamilyIPv6:
		if !ip.Is6() {
			return nil, fmt.Errorf("%q: not ipv6: %w", s, czerr.ErrInvalidAddress)
		}

		a := ip.As16()

		return a[:], nil
	default:
		panic(fmt.Errorf("cznet: unsupported addr fam %s", fam))
	}
}
