package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

// Config holds configuration for the dashboard gateway
type Config struct {
	DriverID         string
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
	CommandTimeout   time.Duration
}

// DefaultConfig returns default configuration for the dashboard gateway
func DefaultConfig(driverID string) Config {
	return Config{
		DriverID:         driverID,
		ConnectionConfig: DefaultConnectionConfig(),
		AllowedOrigins:   []string{"*"},
		CommandTimeout:   15 * time.Second,
	}
}

// Service connects driver dashboards to the order core: it streams countdowns
// and notices out and takes driver commands in.
type Service struct {
	config            Config
	connectionManager *ConnectionManager
	commander         Commander
}

var _ delivery.AttentionCue = (*Service)(nil)

func NewService(config Config, commander Commander) *Service {
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = 15 * time.Second
	}
	s := &Service{
		config:            config,
		connectionManager: NewConnectionManager(config.ConnectionConfig),
		commander:         commander,
	}
	s.connectionManager.onCommand = s.handleCommand
	s.connectionManager.onConnect = s.syncState
	return s
}

// Start runs the broadcast loop until ctx is done
func (s *Service) Start(ctx context.Context) {
	log.Info().Str("driver_id", s.config.DriverID).Msg("starting dashboard gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("dashboard gateway stopped")
}

// RegisterRoutes registers the gateway HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/driver", s.HandleDriverConnection)
	mux.HandleFunc("/api/state", s.HandleGetState)
	mux.HandleFunc("/health", s.HandleHealth)
	log.Info().Msg("dashboard gateway routes registered")
}

// Handler returns the gateway routes behind the CORS policy.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:         86400,
	}).Handler(mux)
}

// HandleDriverConnection upgrades a dashboard connection
func (s *Service) HandleDriverConnection(w http.ResponseWriter, r *http.Request) {
	driverID := r.URL.Query().Get("driver_id")
	if driverID == "" {
		driverID = s.config.DriverID
	}
	if driverID != s.config.DriverID {
		http.Error(w, "unknown driver", http.StatusForbidden)
		return
	}

	if err := s.connectionManager.UpgradeConnection(w, r, driverID); err != nil {
		// The upgrader has already answered the request.
		log.Error().Err(err).Str("driver_id", driverID).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleGetState handles GET /api/state
func (s *Service) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.commander.State())
}

// HandleHealth reports liveness and connection counts
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.connectionManager.GetConnectionStats()
	stats["status"] = "ok"
	stats["driver_id"] = s.config.DriverID
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Service) syncState(c *Connection) {
	event, err := NewEvent(EventTypeStateSync, s.commander.State(), time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build state sync")
		return
	}
	s.connectionManager.SendTo(c, event)
}

func (s *Service) broadcastState() {
	s.publish(EventTypeStateSync, s.commander.State(), time.Now())
}

func (s *Service) publish(typ EventType, payload interface{}, now time.Time) {
	event, err := NewEvent(typ, payload, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to build event")
		return
	}
	s.connectionManager.BroadcastToDriver(s.config.DriverID, event)
}

// OnTimerEvent forwards countdown events. It only enqueues, so it is safe to
// subscribe to the timer registry directly.
func (s *Service) OnTimerEvent(ev timers.Event) {
	event, err := timerEvent(ev)
	if err != nil {
		log.Warn().Err(err).Msg("dropping timer event")
		return
	}
	s.connectionManager.BroadcastToDriver(s.config.DriverID, event)
}

// OnNotice forwards a toast to the dashboards.
func (s *Service) OnNotice(n models.Notice) {
	s.publish(EventTypeNotice, n, time.Now())
}

// Alert announces a pushed order.
func (s *Service) Alert(order models.Order) {
	s.publish(EventTypeOrderPushed, order, time.Now())
}
