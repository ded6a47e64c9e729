package fetcher

import (
	"fmt"
	"net"
	"net/url"
)

// validateURL checks that urlStr is an absolute http(s) URL with a host.
// With denyPrivateIPs the host is resolved and loopback, private and link-local
// addresses are rejected.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}

	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: hostname '%s' resolves to private IP %s", ErrPrivateIP, hostname, ip.String())
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
