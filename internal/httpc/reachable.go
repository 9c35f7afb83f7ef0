package httpc

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Reachable reports whether a TCP connection to the host of rawURL can be
// opened within timeout. It is used as a cheap network preflight before a
// call acquires any audio devices.
func Reachable(ctx context.Context, rawURL string, timeout time.Duration) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("httpc: parse %q: %w", rawURL, err)
	}

	host := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "http" || u.Scheme == "ws" {
			port = "80"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("httpc: %s unreachable: %w", host, err)
	}
	return conn.Close()
}
