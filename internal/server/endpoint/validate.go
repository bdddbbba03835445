// Package endpoint validates and canonicalises the address text an update
// publishes.
package endpoint

import (
	"errors"
	"net/netip"
	"strings"
)

// ErrInvalid is returned for anything that is not an IP address, optionally
// with a port.
var ErrInvalid = errors.New("invalid ip address")

// Validate accepts IPv4, IPv6, bracketed IPv6, and either with a trailing
// ":port" (0-65535). The canonical text is returned: netip's String form,
// brackets dropped when there is no port. Zoned IPv6 addresses are refused.
func Validate(text string) (string, error) {
	if addr, err := netip.ParseAddr(text); err == nil {
		if addr.Zone() != "" {
			return "", ErrInvalid
		}
		return addr.String(), nil
	}

	if inner, ok := strings.CutPrefix(text, "["); ok {
		if inner, ok := strings.CutSuffix(inner, "]"); ok {
			addr, err := netip.ParseAddr(inner)
			if err != nil || !addr.Is6() || addr.Zone() != "" {
				return "", ErrInvalid
			}
			return addr.String(), nil
		}
	}

	ap, err := netip.ParseAddrPort(text)
	if err != nil || ap.Addr().Zone() != "" {
		return "", ErrInvalid
	}
	return ap.String(), nil
}
