package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/PanelKit/backend/internal/api/http"
	"github.com/GriffinCanCode/PanelKit/backend/internal/api/middleware"
	"github.com/GriffinCanCode/PanelKit/backend/internal/api/ws"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/bus"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/panels"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/PanelKit/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PanelKit/backend/internal/storage"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	panels  *panels.Registry
	bus     *bus.Bus
	plugins *plugin.Registry
	persist *persistence.Manager
	hub     *ws.Hub
	adapter storage.Adapter
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing PanelKit Server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// Core registries and the bus
	pluginReg := plugin.NewRegistry(logger.Component("plugin").Logger)
	panelReg := panels.NewRegistry()
	messageBus := bus.New(pluginReg, panelReg, logger.Component("bus").Logger).WithMetrics(metrics)

	// Storage backend
	adapter, err := newAdapter(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage backend: %w", err)
	}
	logger.Info("Storage backend ready", zap.String("backend", cfg.Storage.Backend))

	persist := persistence.NewManager(adapter, persistence.Config{
		StorageKey:        cfg.Persistence.StorageKey,
		TTL:               cfg.Persistence.TTL,
		MaxEventAge:       cfg.Persistence.MaxEventAge,
		DebounceInterval:  cfg.Persistence.DebounceInterval,
		IncludeNavigation: cfg.Persistence.IncludeNavigation,
		CompressThreshold: cfg.Persistence.CompressThreshold,
	}, logger.Component("persistence").Logger).WithMetrics(metrics)

	hub := ws.NewHub(logger.Component("ws").Logger).WithMetrics(metrics)

	// Optional panel layout bootstrap
	if cfg.Panels.ConfigPath != "" {
		layout, err := config.LoadPanelConfig(cfg.Panels.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load panel layout: %w", err)
		}
		if err := panelReg.SetConfig(*layout); err != nil {
			return nil, fmt.Errorf("invalid panel layout: %w", err)
		}
		logger.Info("Panel layout applied",
			zap.String("path", cfg.Panels.ConfigPath),
			zap.Int("panels", len(layout.Panels)),
			zap.Int("resources", len(layout.Resources)),
		)
	}

	// Rehydrate from the last snapshot, if one survives
	if snapshot := persist.LoadState(context.Background()); snapshot != nil {
		panelReg.RestoreNavigation(snapshot.PanelNavigation)
		messageBus.Restore(snapshot.ResourceMessages)
		logger.Info("State rehydrated",
			zap.Int("panels", len(snapshot.PanelNavigation)),
			zap.Int("scopes", len(snapshot.ResourceMessages)),
		)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Create handlers
	handlers := apihttp.NewHandlers(panelReg, messageBus, pluginReg, persist, hub, logger.Component("http").Logger).WithMetrics(metrics)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Panel configuration and navigation
	router.POST("/config", handlers.ApplyConfig)
	router.GET("/panels", handlers.ListPanels)
	router.GET("/panels/:id/navigation", handlers.GetNavigation)
	router.POST("/panels/:id/navigate", handlers.Navigate)

	// Resources
	router.GET("/resources", handlers.ListResources)
	router.GET("/resources/:id", handlers.GetResource)
	router.GET("/resources/:id/messages", handlers.Messages)
	router.GET("/resources/:id/state/:key", handlers.CurrentState)
	router.POST("/resources/:id/messages/clear", handlers.ClearMessages)

	// Messaging
	router.POST("/messages/send", handlers.Send)
	router.POST("/messages/:id/consume", handlers.Consume)
	router.POST("/state/clear", handlers.ClearState)
	router.POST("/bus/sweep", handlers.Sweep)

	// Plugins
	router.GET("/plugins", handlers.ListPlugins)

	// Persistence
	router.POST("/persistence/save", handlers.SaveState)
	router.POST("/persistence/restore", handlers.RestoreState)
	router.DELETE("/persistence", handlers.ClearPersisted)
	router.GET("/persistence/info", handlers.PersistenceInfo)

	// WebSocket
	router.GET("/stream", hub.HandleConnection)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		panels:  panelReg,
		bus:     messageBus,
		plugins: pluginReg,
		persist: persist,
		hub:     hub,
		adapter: adapter,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Plugins exposes the plugin registry so embedders can install plugins
// before Run.
func (s *Server) Plugins() *plugin.Registry {
	return s.plugins
}

// Run starts the HTTP server
func (s *Server) Run() error {
	go s.trackUptime()

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server: the pending auto-save is
// flushed before the storage backend closes.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !s.persist.Flush(ctx) {
		s.logger.Warn("Failed to flush pending state on shutdown")
	}
	s.persist.Stop()

	if closer, ok := s.adapter.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("Failed to close storage backend", zap.Error(err))
			return fmt.Errorf("failed to close storage backend: %w", err)
		}
	}

	// Sync logger before exit
	s.logger.Sync()

	return nil
}

func (s *Server) trackUptime() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		s.metrics.UpdateUptime()
	}
}

// newAdapter opens the configured storage backend
func newAdapter(cfg config.StorageConfig) (storage.Adapter, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "bolt":
		b, err := storage.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "remote":
		remoteCfg := storage.DefaultRemoteConfig(cfg.RemoteURL)
		remoteCfg.Timeout = cfg.RemoteTimeout
		remoteCfg.RetryCount = cfg.RemoteRetries
		remoteCfg.AuthToken = cfg.RemoteToken
		// A dead remote fails fast instead of stalling every save
		return storage.NewResilient(storage.NewRemote(remoteCfg), "remote-storage", resilience.Settings{
			Timeout: 30 * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
