package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/api"
	"task-calendar/internal/task-calendar/backend"
	"task-calendar/internal/task-calendar/config"
	taskDB "task-calendar/internal/task-calendar/db"
	tcKafka "task-calendar/internal/task-calendar/kafka"
	"task-calendar/internal/task-calendar/services"
	gorm_db "task-calendar/pkg/db"
)

const DefaultConfigPath = "config.yaml"

func hlogLevel(name string) hlog.Level {
	switch name {
	case "debug":
		return hlog.LevelDebug
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	}
	return hlog.LevelInfo
}

func main() {
	stdlog.Println("Task Calendar Service starting...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())

	gormDB, err := gorm_db.NewGormDB(gorm_db.Options{
		Type:     cfg.DBType,
		DSN:      cfg.DBDSN,
		LogLevel: gorm_db.GormLogLevel(cfg.LogLevel),
	})
	if err != nil {
		stdlog.Fatalf("Failed to initialize database: %v", err)
	}
	stdlog.Println("Database initialized successfully.")

	if err := gorm_db.AutoMigrate(gormDB, taskDB.Models()...); err != nil {
		stdlog.Fatalf("Failed to migrate database: %v", err)
	}
	stdlog.Println("Database migration successful.")

	hlog.SetOutput(os.Stdout)
	hlog.SetLevel(hlogLevel(cfg.LogLevel))

	st := store.New()
	snapshots := taskDB.NewSnapshotRepository(gormDB)
	analytics := taskDB.NewAnalyticsRepository(gormDB)
	if snap, savedAt, ok, err := snapshots.Load(appCtx); err != nil {
		hlog.Warnf("Failed to load cached snapshot: %v", err)
	} else if ok {
		st.Load(snap)
		hlog.Infof("Loaded cached snapshot from %s (%d tasks)", savedAt.Format(time.RFC3339), len(snap.Tasks))
	}

	client, err := backend.NewClient(cfg.BackendAPI, backend.StaticToken(cfg.BackendToken), time.Duration(cfg.BackendTimeout)*time.Second)
	if err != nil {
		stdlog.Fatalf("Failed to create backend client: %v", err)
	}

	guard := services.NewActionGuard()
	taskService := services.NewTaskService(client, st, guard)
	eventService := services.NewEventService(client, st, guard)
	logService := services.NewLogService(client, st, guard)
	logService.Analytics = analytics

	var (
		publisher   *tcKafka.Publisher
		feedService *services.ChangeFeedService
	)
	if cfg.ChangeFeed {
		publisher = tcKafka.NewPublisher(tcKafka.NewLogChangeWriter(cfg.KafkaBrokers, cfg.LogChangeTopic), cfg.ClientID)
		logService.Publisher = publisher

		reader := tcKafka.NewLogChangeReader(cfg.KafkaBrokers, cfg.LogChangeTopic, cfg.LogChangeGroupID)
		feedService = services.NewChangeFeedService(reader, st, analytics, cfg.ClientID)
		feedService.StartConsuming(appCtx)
		hlog.Infof("Log change feed enabled on topic %s as client %s", cfg.LogChangeTopic, cfg.ClientID)
	}

	refreshService, err := services.NewRefreshService(appCtx, client, st, snapshots)
	if err != nil {
		stdlog.Fatalf("Failed to create refresh service: %v", err)
	}
	if err := refreshService.Start(cfg.RefreshCron); err != nil {
		stdlog.Fatalf("Failed to start refresh service: %v", err)
	}
	go func() {
		if _, err := refreshService.RefreshAll(appCtx); err != nil {
			hlog.Warnf("Initial refresh failed, serving cached data: %v", err)
		}
	}()

	h := server.Default(server.WithHostPorts(cfg.ServerAddr), server.WithExitWaitTime(5*time.Second))
	api.Register(h, api.Handlers{
		Tasks:  api.NewTaskHandler(taskService, logService, st),
		Events: api.NewEventHandler(eventService, st),
		Views:  api.NewViewHandler(st, analytics),
		Admin:  &api.AdminHandler{Refresh: refreshService},
	})

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		hlog.Infof("Received signal: %s. Initiating graceful shutdown...", sig)

		appCancel()

		shutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpShutdownCancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			hlog.Errorf("Hertz server shutdown error: %v", err)
		} else {
			hlog.Info("Hertz server gracefully stopped.")
		}

		refreshService.Stop()

		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := snapshots.Save(saveCtx, st.Snapshot()); err != nil {
			hlog.Errorf("Failed to persist snapshot on shutdown: %v", err)
		}

		if feedService != nil {
			feedService.Close()
			hlog.Info("Change feed consumer closed.")
		}
		if err := publisher.Close(); err != nil {
			hlog.Errorf("Kafka producer close error: %v", err)
		}
		hlog.Info("Task Calendar gracefully shut down.")
	}()

	hlog.Infof("Task Calendar Service fully initialized and starting Hertz server on %s...", cfg.ServerAddr)
	h.Spin()

	stdlog.Println("Task Calendar Service has been shut down.")
}
