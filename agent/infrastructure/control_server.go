package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// ControlServer exposes the agent's external control surface: the one-shot
// stopService event and a health probe.
type ControlServer struct {
	address agentDomain.BindAddress
	stop    func() error
	logger  agentDomain.Logger
}

func (s *ControlServer) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "stopping"
	if err := s.stop(); errors.Is(err, agentDomain.ErrStopDelivered) {
		// The event is consumed exactly once; acknowledge later deliveries
		// without any further effect.
		status = "already stopping"
	}

	s.logger.Info("stop signal delivered from %s: %s", r.RemoteAddr, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *ControlServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *ControlServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/control/stopService", s.handleStop)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run serves the control surface until the context is cancelled.
func (s *ControlServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:        string(s.address),
		Handler:     h2c.NewHandler(s.handler(), &http2.Server{}),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down control server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("control server shutdown error: %s", err.Error())
		}
	}()

	s.logger.Info("control server listening on %s", s.address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NewControlServer creates a control server delivering the stop event through
// the given callback.
func NewControlServer(address agentDomain.BindAddress, stop func() error, logger agentDomain.Logger) *ControlServer {
	return &ControlServer{
		address: address,
		stop:    stop,
		logger:  logger,
	}
}
