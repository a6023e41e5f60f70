package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/larsks/doorbell/internal/relay"
)

const (
	switchStateOn  = "on"
	switchStateOff = "off"
)

// StatusProvider exposes controller state to the REST surface
type StatusProvider interface {
	Status() relay.Status
	Config() relay.Config
}

// HTTPConfig configures the REST surface
type HTTPConfig struct {
	ListenAddress  string   `mapstructure:"listen-address"`
	ListenPort     int      `mapstructure:"listen-port"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

type switchRequest struct {
	State string `json:"state"`
}

type switchResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Displayed bool          `json:"displayed"`
	Relay     *relay.Status `json:"relay,omitempty"`
}

// ConfigResponse is the body of GET /config
type ConfigResponse struct {
	DwellDuration  string `json:"dwell-duration" yaml:"dwell-duration"`
	ActiveValue    string `json:"active-value" yaml:"active-value"`
	InactiveValue  string `json:"inactive-value" yaml:"inactive-value"`
	DisableLogging bool   `json:"disable-logging" yaml:"disable-logging"`
}

// HTTPServer is a REST command surface.
//
//	POST /switch  {"state": "on"|"off"}
//	GET  /switch
//	GET  /config
type HTTPServer struct {
	commandHub

	listenAddr string
	router     *chi.Mux

	mu       sync.Mutex
	provider StatusProvider
	srv      *http.Server
	addr     net.Addr
	errCh    chan error
}

// NewHTTPServer creates a new HTTP surface
func NewHTTPServer(cfg HTTPConfig) *HTTPServer {
	s := &HTTPServer{
		listenAddr: fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort),
		router:     chi.NewRouter(),
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/switch", s.switchStatusHandler)
	s.router.With(s.validateJSONRequest).Post("/switch", s.switchHandler)
	s.router.Get("/config", s.configHandler)

	return s
}

// SetStatusProvider attaches the controller whose state GET /switch and
// GET /config report.
func (s *HTTPServer) SetStatusProvider(p StatusProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

func (s *HTTPServer) statusProvider() StatusProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// Handler returns the router, for use with httptest
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// SetDisplayedState records the state reported by GET /switch
func (s *HTTPServer) SetDisplayedState(on bool) {
	s.setDisplayed(on)
}

// Start listens on the configured address and serves in the background
func (s *HTTPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerFailed, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.addr = listener.Addr()
	s.errCh = make(chan error, 1)
	errCh := s.errCh
	s.mu.Unlock()

	go func() {
		log.Printf("Starting server on %s", listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			errCh <- err
		}
		close(errCh)
	}()

	return nil
}

// Addr returns the listening address once started
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close shuts the server down gracefully
func (s *HTTPServer) Close() error {
	s.mu.Lock()
	srv, errCh := s.srv, s.errCh
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("%w: %v", ErrServerFailed, err)
	}

	log.Println("Server gracefully stopped")
	return nil
}

func (s *HTTPServer) String() string {
	return fmt.Sprintf("HTTPServer(%s)", s.listenAddr)
}

func (s *HTTPServer) sendJSON(w http.ResponseWriter, httpCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func (s *HTTPServer) sendError(w http.ResponseWriter, message string, httpCode int) {
	s.sendJSON(w, httpCode, switchResponse{
		Status:    "error",
		Message:   message,
		Displayed: s.Displayed(),
	})
}

func (s *HTTPServer) sendStatus(w http.ResponseWriter) {
	resp := switchResponse{
		Status:    "ok",
		Displayed: s.Displayed(),
	}
	if p := s.statusProvider(); p != nil {
		status := p.Status()
		resp.Relay = &status
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// validateJSONRequest rejects bodies that are not declared as JSON
func (s *HTTPServer) validateJSONRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if contentType != "" && contentType != "application/json" {
			s.sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) switchHandler(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	switch req.State {
	case switchStateOn:
		s.emit(true)
	case switchStateOff:
		s.emit(false)
	default:
		s.sendError(w, "State must be 'on' or 'off'", http.StatusBadRequest)
		return
	}

	s.sendStatus(w)
}

func (s *HTTPServer) switchStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.sendStatus(w)
}

func (s *HTTPServer) configHandler(w http.ResponseWriter, r *http.Request) {
	p := s.statusProvider()
	if p == nil {
		s.sendError(w, "No relay attached", http.StatusServiceUnavailable)
		return
	}
	s.sendJSON(w, http.StatusOK, NewConfigResponse(p.Config()))
}

// NewConfigResponse converts a relay configuration to its wire form
func NewConfigResponse(cfg relay.Config) ConfigResponse {
	return ConfigResponse{
		DwellDuration:  cfg.DwellDuration.String(),
		ActiveValue:    string(cfg.ActiveValue),
		InactiveValue:  string(cfg.InactiveValue),
		DisableLogging: cfg.DisableLogging,
	}
}
