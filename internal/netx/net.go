// Package netx finds the address a host should publish.
package netx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// OutboundIP returns the local address the kernel would use to reach probe
// (host:port). Dialing UDP sends no packets.
func OutboundIP(probe string) (netip.Addr, error) {
	conn, err := net.Dial("udp", probe)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("outbound ip: %w", err)
	}
	defer conn.Close()

	ap, err := netip.ParseAddrPort(conn.LocalAddr().String())
	if err != nil {
		return netip.Addr{}, fmt.Errorf("outbound ip: %w", err)
	}
	return ap.Addr().Unmap(), nil
}

// PublicIP asks an echo service at url (one that answers GET with the
// caller's address as plain text) for the address it sees.
func PublicIP(ctx context.Context, client *http.Client, url string) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return netip.Addr{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return netip.Addr{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("lookup failed: %s; body: %s", resp.Status, string(b))
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(string(b)))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("lookup answered %q: %w", strings.TrimSpace(string(b)), err)
	}
	return addr.Unmap(), nil
}

// WithPort renders addr, or addr:port when port is non-zero, in the form
// the server accepts.
func WithPort(addr netip.Addr, port uint16) string {
	if port == 0 {
		return addr.String()
	}
	return netip.AddrPortFrom(addr, port).String()
}
