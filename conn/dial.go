package conn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/arterrin/lvrpc/auth/sasl"
	"github.com/arterrin/lvrpc/client"
	"github.com/arterrin/lvrpc/internal/logger"
	"github.com/arterrin/lvrpc/procedure"
)

// TLSOptions configures the "tls" transport's certificate material. All
// paths are optional; an empty CAFile falls back to the system root pool.
type TLSOptions struct {
	CAFile     string
	CertFile   string
	KeyFile    string
	ServerName string
	Insecure   bool
}

// Dial takes an already parsed uri, dials its transport, and returns a raw net.Conn
// ready for CONNECT_OPEN. Callers that want the full bootstrap handshake
// should use Open instead.
func Dial(ctx context.Context, uri *URI, tlsOpts TLSOptions) (net.Conn, error) {
	d := net.Dialer{}
	switch uri.Transport {
	case TransportUnix:
		return d.DialContext(ctx, "unix", uri.Socket)
	case TransportTCP:
		addr := net.JoinHostPort(uri.Host, fmt.Sprintf("%d", uri.Port))
		return d.DialContext(ctx, "tcp", addr)
	case TransportTLS:
		addr := net.JoinHostPort(uri.Host, fmt.Sprintf("%d", uri.Port))
		raw, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		cfg, err := buildTLSConfig(uri, tlsOpts)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}
		tlsConn := tls.Client(raw, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("conn: tls handshake to %s: %w", addr, err)
		}
		return tlsConn, nil
	default:
		return nil, fmt.Errorf("conn: unsupported transport %q", uri.Transport)
	}
}

func buildTLSConfig(uri *URI, opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName:         firstNonEmpty(opts.ServerName, uri.Host),
		InsecureSkipVerify: opts.Insecure,
		MinVersion:         tls.VersionTLS12,
	}
	if opts.CAFile != "" {
		pool, err := loadCAPool(opts.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	if opts.CertFile != "" && opts.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("conn: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Open dials uri, performs CONNECT_OPEN, and returns an established
// *client.Connection. Callers must call Close (which issues CONNECT_CLOSE)
// when done.
func Open(ctx context.Context, uri *URI, opts Options) (*client.Connection, error) {
	ctx = logger.WithContext(ctx, logger.NewLogContext(uri.Raw))
	dialCtx := ctx
	cancel := func() {}
	if opts.DialTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
	}
	defer cancel()

	raw, err := Dial(dialCtx, uri, opts.TLS)
	if err != nil {
		logger.ErrorCtx(ctx, "conn: dial failed", logger.Err(err))
		return nil, fmt.Errorf("conn: dial %s: %w", uri.Raw, err)
	}

	c := client.New(raw, client.Options{})
	name := uri.RemoteName()
	_, err = c.Call(ctx, procedure.ProcConnectOpen, procedure.ConnectOpenArgs{
		Name:     &name,
		ReadOnly: uri.ReadOnly,
	})
	if err != nil {
		_ = c.Close()
		logger.ErrorCtx(ctx, "conn: CONNECT_OPEN failed", logger.Err(err))
		return nil, fmt.Errorf("conn: CONNECT_OPEN to %s: %w", uri.Raw, err)
	}

	if opts.SASL != nil {
		if err := sasl.Negotiate(ctx, c, opts.SASL); err != nil {
			_ = c.Close()
			logger.ErrorCtx(ctx, "conn: sasl negotiation failed", logger.Err(err))
			return nil, fmt.Errorf("conn: sasl negotiation with %s: %w", uri.Raw, err)
		}
	}

	lc := logger.FromContext(ctx)
	logger.Info("connection opened", logger.ClientAddr(uri.Raw), "readonly", uri.ReadOnly, logger.DurationMs(lc.DurationMs()))
	return c, nil
}

// Close performs CONNECT_CLOSE and releases the transport.
func Close(ctx context.Context, c *client.Connection) error {
	_, err := c.Call(ctx, procedure.ProcConnectClose, nil)
	closeErr := c.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// Options bundles the knobs Open needs beyond the URI itself.
type Options struct {
	DialTimeout time.Duration
	TLS         TLSOptions
	// SASL, if set, is run immediately after CONNECT_OPEN succeeds.
	SASL sasl.Mechanism
}
