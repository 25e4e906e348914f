package ngrok

import (
	"context"
	"errors"
	"fmt"

	"carbridge/internal/config"

	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok/v2"
)

// Service exposes the head-unit bridge through an ngrok endpoint so a
// phone-tethered head unit can reach it outside the local network.
type Service struct {
	config *config.NgrokConfig
	agent  ngrok.Agent
	tunnel ngrok.EndpointForwarder
	logger *logrus.Logger
}

// NewService creates the tunnel service. It returns nil, nil when the
// tunnel is disabled; a nil *Service is safe to use.
func NewService(cfg *config.NgrokConfig, logger *logrus.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.AuthToken == "" {
		return nil, errors.New("ngrok auth token not found, set NGROK_AUTHTOKEN or ngrok.auth_token")
	}
	if logger == nil {
		logger = logrus.New()
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok agent: %w", err)
	}

	return &Service{config: cfg, agent: agent, logger: logger}, nil
}

// trafficPolicy builds the OAuth policy placed in front of the endpoint
func trafficPolicy(provider string) string {
	return fmt.Sprintf(`
on_http_request:
  - actions:
      - type: oauth
        config:
          provider: %s
`, provider)
}

// StartTunnel forwards the public endpoint to upstream, e.g. "http://localhost:8080".
func (s *Service) StartTunnel(ctx context.Context, upstream string) error {
	if s == nil {
		return nil
	}

	s.logger.Info("Starting ngrok tunnel")

	var opts []ngrok.EndpointOption
	if s.config.Domain != "" {
		opts = append(opts, ngrok.WithURL(s.config.Domain))
	}
	if s.config.EnableAuth {
		opts = append(opts, ngrok.WithTrafficPolicy(trafficPolicy(s.config.AuthProvider)))
	}

	tunnel, err := s.agent.Forward(ctx, ngrok.WithUpstream(upstream), opts...)
	if err != nil {
		return fmt.Errorf("failed to create ngrok tunnel: %w", err)
	}
	s.tunnel = tunnel

	s.logger.WithFields(logrus.Fields{
		"public_url": tunnel.URL().String(),
		"upstream":   upstream,
		"oauth":      s.config.EnableAuth,
	}).Info("Ngrok tunnel active")
	return nil
}

// PublicURL returns the tunnel URL, or "" when no tunnel is running
func (s *Service) PublicURL() string {
	if s == nil || s.tunnel == nil {
		return ""
	}
	return s.tunnel.URL().String()
}

// Stop closes the tunnel
func (s *Service) Stop() error {
	if s == nil || s.tunnel == nil {
		return nil
	}
	s.logger.Info("Stopping ngrok tunnel")
	return s.tunnel.Close()
}

// Done is closed when the tunnel ends. It is nil without a tunnel.
func (s *Service) Done() <-chan struct{} {
	if s == nil || s.tunnel == nil {
		return nil
	}
	return s.tunnel.Done()
}
