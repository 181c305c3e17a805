package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"visiondash/internal/config"
	"visiondash/internal/logger"
	"visiondash/internal/repository/sqlite"
	"visiondash/internal/routes"
	"visiondash/internal/services/ai"
	"visiondash/internal/services/control"
	"visiondash/internal/services/feed"
	"visiondash/internal/services/storage"
	"visiondash/internal/services/telemetry"
	hubws "visiondash/internal/services/websocket"
)

// App wires the stream consumers, control client and HTTP layer together.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	snapshots  *sqlite.SnapshotRepository
	telemetry  *sqlite.TelemetryRepository
	hub        *hubws.HubService
	buffer     *storage.BufferService
	controller *control.Controller
	video      *feed.Consumer
	metadata   *telemetry.Consumer

	stopBuffer chan struct{}
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg.LogDirectory)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	snapRepo := sqlite.NewSnapshotRepository(db)
	telRepo := sqlite.NewTelemetryRepository(db)

	hub := hubws.NewHubService(log)
	annotator := ai.NewAnnotatorService(log)
	buffer := storage.NewBufferService(cfg.SnapshotDirectory, cfg.SnapshotLimit, snapRepo, log)

	controller := control.NewController(cfg.UpstreamURL)
	controller.OnError = func(msg string) {
		log.Error("%s", msg)
	}

	metaConsumer, err := telemetry.NewConsumer(telemetry.Config{
		URL:            cfg.UpstreamURL + cfg.MetadataStreamPath,
		RetryDelay:     time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		SampleInterval: time.Duration(cfg.TelemetrySampleSecs) * time.Second,
		Publisher:      hub,
		Samples:        telRepo,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("create metadata consumer: %w", err)
	}
	metaConsumer.OnConnected = func() {
		log.Info("Metadata stream connected")
	}
	metaConsumer.OnError = func(msg string) {
		log.Error("Metadata stream: %s", msg)
	}
	metaConsumer.OnStatusChange = func(running bool) {
		log.Info("Metadata stream running=%v", running)
	}

	videoConsumer, err := feed.NewConsumer(feed.Config{
		URL:              cfg.UpstreamURL + cfg.FrameStreamPath,
		StaleTimeout:     time.Duration(cfg.StaleTimeoutMs) * time.Millisecond,
		RetryDelay:       time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		SnapshotEveryNth: cfg.SnapshotEveryNth,
		Publisher:        hub,
		Metadata:         metaConsumer,
		Annotator:        annotator,
		Snapshots:        buffer,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("create frame consumer: %w", err)
	}
	videoConsumer.OnConnected = func() {
		log.Info("Video stream connected")
		hub.Publish(hubws.TypeStatus, map[string]any{"video_unavailable": false})
	}
	videoConsumer.OnDisconnected = func(reason string) {
		log.Warning("Video stream disconnected: %s", reason)
		hub.Publish(hubws.TypeStatus, map[string]any{"video_unavailable": true, "reason": reason})
	}
	videoConsumer.OnError = func(msg string) {
		log.Error("Video stream: %s", msg)
	}
	videoConsumer.OnStatusChange = func(running bool) {
		log.Info("Video stream running=%v", running)
		hub.Publish(hubws.TypeStatus, map[string]any{"video_running": running})
	}

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		snapshots:  snapRepo,
		telemetry:  telRepo,
		hub:        hub,
		buffer:     buffer,
		controller: controller,
		video:      videoConsumer,
		metadata:   metaConsumer,
	}, nil
}

// Run starts background services and both stream consumers, serves HTTP and
// blocks until SIGINT/SIGTERM, then releases every connection and timer.
func (a *App) Run() error {
	go a.hub.Run()

	a.stopBuffer = make(chan struct{})
	go a.buffer.Run(a.config.FlushInterval, a.stopBuffer)

	a.video.Start()
	a.metadata.Start()

	router := routes.SetupRoutes(&routes.Deps{
		Config:     a.config,
		Logger:     a.logger,
		Hub:        a.hub,
		Video:      a.video,
		Metadata:   a.metadata,
		Controller: a.controller,
		Snapshots:  a.snapshots,
		Telemetry:  a.telemetry,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("Vision Dashboard Gateway\n")
	fmt.Printf("URL:      http://localhost:%d\n", a.config.Port)
	fmt.Printf("Upstream: %s\n", a.config.UpstreamURL)
	fmt.Printf("Snapshots: %s\n", a.config.SnapshotDirectory)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown(server)
		return err
	case <-stop:
		a.logger.Info("Shutdown signal received")
		a.shutdown(server)
		return nil
	}
}

func (a *App) shutdown(server *http.Server) {
	a.video.Shutdown()
	a.metadata.Stop()

	close(a.stopBuffer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown: %v", err)
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Database close: %v", err)
	}

	a.logger.Info("Shutdown complete")
}
