package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"

	"github.com/phrazzld/ensemble-api/internal/config"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// ErrNoCertificate is returned when encrypted transport is requested without
// any certificate material.
var ErrNoCertificate = errors.New("secure transport requires a certificate/key pair or autocert hosts")

// Binding is a bound listener ready for http.Server.Serve.
type Binding struct {
	Listener  net.Listener
	Encrypted bool
	// Addr is the resolved listen address, which differs from the
	// configured one when port 0 was requested.
	Addr string
}

// Selector decides between plain and encrypted transport.
type Selector struct {
	cfg config.ServerConfig
	log *slog.Logger
}

// NewSelector creates a Selector for the server configuration.
func NewSelector(cfg config.ServerConfig, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{cfg: cfg, log: log.With(slog.String("component", "transport"))}
}

// Address returns the configured host:port.
func (s *Selector) Address() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Bind opens the listener. When the server is secure the certificate source
// is installed on srv.TLSConfig and the listener terminates TLS.
func (s *Selector) Bind(ctx context.Context, srv *http.Server) (*Binding, error) {
	var tlsCfg *tls.Config
	if s.cfg.Secure {
		var err error
		if tlsCfg, err = s.tlsConfig(srv.TLSConfig); err != nil {
			return nil, err
		}
		srv.TLSConfig = tlsCfg
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.Address(), err)
	}

	binding := &Binding{Listener: ln, Addr: ln.Addr().String()}
	if tlsCfg != nil {
		binding.Listener = tls.NewListener(ln, tlsCfg)
		binding.Encrypted = true
	}

	s.log.Debug("listener bound",
		slog.String("addr", binding.Addr),
		slog.Bool("encrypted", binding.Encrypted))
	return binding, nil
}

func (s *Selector) tlsConfig(base *tls.Config) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if base != nil {
		cfg = base.Clone()
	}
	if !slices.Contains(cfg.NextProtos, "h2") {
		cfg.NextProtos = append(cfg.NextProtos, "h2", "http/1.1")
	}

	ssl := s.cfg.SSL
	switch {
	case ssl.HasCertificate():
		cert, err := tls.LoadX509KeyPair(ssl.CertFile, ssl.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}

	case len(ssl.AutocertHosts) > 0:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(ssl.AutocertHosts...),
		}
		if ssl.AutocertCacheDir != "" {
			m.Cache = autocert.DirCache(ssl.AutocertCacheDir)
		}
		cfg.GetCertificate = m.GetCertificate
		cfg.NextProtos = append(cfg.NextProtos, acme.ALPNProto)
		s.log.Info("using autocert", slog.Any("hosts", ssl.AutocertHosts))

	default:
		return nil, ErrNoCertificate
	}

	return cfg, nil
}
