package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/meshsync/chainwatch/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics over one or more HTTP endpoints.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
}

// NewService configures the monitoring service.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		log:         log.With(zap.String("service", name)),
		serviceType: name,
	}
}

// Start runs the service with the exposed endpoints on the configured
// addresses.
func (ms *Service) Start() error {
	if ms.config.Enabled {
		for _, srv := range ms.http {
			ms.log.Info("starting service", zap.String("endpoint", srv.Addr))

			go func(s *http.Server) {
				err := s.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					ms.log.Error("failed to start service", zap.String("endpoint", s.Addr), zap.Error(err))
				}
			}(srv)
		}
	} else {
		ms.log.Info("service hasn't started since it's disabled")
	}
	return nil
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
}
