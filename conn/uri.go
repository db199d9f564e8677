// Package conn implements connection bootstrap: URI parsing, transport
// dialing (unix/tcp/tls), and the CONNECT_OPEN/CONNECT_CLOSE handshake
// that brackets every session.
package conn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultTCPPort is the standard unencrypted libvirtd TCP port.
const DefaultTCPPort = 16509

// DefaultTLSPort is the standard libvirtd TLS port.
const DefaultTLSPort = 16514

// DefaultUnixSocket is the default local socket path for the "unix"
// transport.
const DefaultUnixSocket = "/var/run/libvirt/libvirt-sock"

// Transport names the network transport a URI selects.
type Transport string

const (
	TransportUnix Transport = "unix"
	TransportTCP  Transport = "tcp"
	TransportTLS  Transport = "tls"
)

// URI is a parsed libvirt connection URI: `<driver>+<transport>://<host>[:<port>]/<path>[?query]`.
// A bare `<driver>://<path>` with no `+transport` defaults to TransportUnix,
// matching virConnectOpen's historical behavior for local drivers.
type URI struct {
	Raw       string
	Driver    string
	Transport Transport
	Host      string
	Port      int
	Path      string
	Socket    string // explicit ?socket= override for the unix transport
	ReadOnly  bool
	Query     url.Values
}

// ParseURI parses raw into a URI, applying libvirt's standard
// driver/transport defaults (qemu+unix, qemu+tcp, qemu+tls, ...).
func ParseURI(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("conn: parse uri %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("conn: uri %q has no scheme", raw)
	}

	driver, transport := u.Scheme, string(TransportUnix)
	if idx := strings.IndexByte(u.Scheme, '+'); idx >= 0 {
		driver, transport = u.Scheme[:idx], u.Scheme[idx+1:]
	}

	result := &URI{
		Raw:       raw,
		Driver:    driver,
		Transport: Transport(transport),
		Host:      u.Hostname(),
		Path:      u.Path,
		Query:     u.Query(),
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("conn: uri %q has invalid port %q: %w", raw, p, err)
		}
		result.Port = port
	}

	if sock := result.Query.Get("socket"); sock != "" {
		result.Socket = sock
	}
	if ro := result.Query.Get("readonly"); ro == "1" || ro == "true" {
		result.ReadOnly = true
	}

	switch result.Transport {
	case TransportTCP:
		if result.Port == 0 {
			result.Port = DefaultTCPPort
		}
	case TransportTLS:
		if result.Port == 0 {
			result.Port = DefaultTLSPort
		}
	case TransportUnix:
		if result.Socket == "" {
			result.Socket = DefaultUnixSocket
		}
	default:
		return nil, fmt.Errorf("conn: uri %q names unsupported transport %q", raw, result.Transport)
	}

	return result, nil
}

// RemoteName is the name CONNECT_OPEN's args.name should carry: the
// driver, host and path of the URI with the transport stripped
// (`name="<driver>://<host><path>"`).
func (u *URI) RemoteName() string {
	return fmt.Sprintf("%s://%s%s", u.Driver, u.Host, u.Path)
}
