/*
Package metrics implements the Prometheus metrics HTTP service of the client.
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thepower/tpgo/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string

	lock      sync.Mutex
	listeners []net.Listener
	started   bool
}

// NewPrometheusService creates a new service for gathering prometheus metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:              addr,
			Handler:           promhttp.Handler(), // share metrics between multiple prometheus handlers
			ReadHeaderTimeout: shutdownTimeout,
		}
	}
	return &Service{
		http:        srvs,
		config:      cfg,
		serviceType: "Prometheus",
		log:         log.With(zap.String("service", "Prometheus")),
	}
}

// Name returns service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Start binds all configured addresses and serves metrics in background. It
// does nothing if the service is disabled.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	if ms.started {
		return errors.New("already started")
	}
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range ms.listeners {
				_ = l.Close()
			}
			ms.listeners = nil
			return fmt.Errorf("%s service couldn't start on %s: %w", ms.serviceType, srv.Addr, err)
		}
		ms.listeners = append(ms.listeners, ln)
	}
	for i, srv := range ms.http {
		ms.log.Info("service is running", zap.String("endpoint", ms.listeners[i].Addr().String()))
		go func(srv *http.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to serve", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv, ms.listeners[i])
	}
	ms.started = true
	return nil
}

// Addresses returns the addresses the service actually listens on.
func (ms *Service) Addresses() []string {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	res := make([]string, 0, len(ms.listeners))
	for _, l := range ms.listeners {
		res = append(res, l.Addr().String())
	}
	return res
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	if !ms.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(ctx)
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.listeners = nil
	ms.started = false
}
