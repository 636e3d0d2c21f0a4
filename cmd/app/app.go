package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rouemaroc/spinwheel/internal/api"
	v1 "github.com/rouemaroc/spinwheel/internal/api/handler/v1"
	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/db"
	"github.com/rouemaroc/spinwheel/internal/jobs"
	"github.com/rouemaroc/spinwheel/internal/logger"
	"github.com/rouemaroc/spinwheel/internal/notify"
	"github.com/rouemaroc/spinwheel/internal/repository"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
	"github.com/rouemaroc/spinwheel/internal/service"
	"github.com/rouemaroc/spinwheel/internal/storage"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath, func(reloaded *config.AppConfig) {
		if err := logger.SetLevel(reloaded.API.LogLevel); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	if err = logger.SetLevel(conf.API.LogLevel); err != nil {
		zap.L().Warn("invalid log level", zap.Error(err))
	}

	postgresDB, err := OpenDB(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := v1.NewLiveHub(conf.API.AllowedCORSDomains)
	go hub.Run(ctx)

	publisher, closePublishers := initPublisher(ctx, conf, hub)
	defer closePublishers()

	images, err := initImageStore(conf.Cloudinary)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage -> %w", err)
	}

	reconciler := jobs.NewReconciler(
		repository.NewGiftRepository(dao.NewGiftDAO(postgresDB), conf.Allocation.ZeroCeilingUnlimited),
		repository.NewParticipantRepository(dao.NewParticipantDAO(postgresDB)),
	)
	scheduler, err := jobs.Schedule(conf.Jobs.ReconcileCron, reconciler)
	if err != nil {
		return fmt.Errorf("failed to schedule jobs -> %w", err)
	}
	defer scheduler.Stop()

	s := api.NewServer(conf, postgresDB, api.Deps{
		Hub:       hub,
		Publisher: publisher,
		Images:    images,
	})

	addr := ":" + s.Config.API.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %v -> %w", addr, err)
	}

	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Serve(ctx, ln); err != nil {
		return fmt.Errorf("failed to run the server -> %w", err)
	}

	return nil
}

// OpenDB prefers DATABASE_URL over the postgres section of the config.
func OpenDB(conf *config.AppConfig) (*gorm.DB, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return db.OpenPostgresWithURL(dbURL)
	}

	return db.OpenPostgres(conf.Postgres)
}

// initPublisher wires the live feed through Redis when it answers, in-process
// otherwise, and adds the RabbitMQ queue for won spins when it is reachable.
func initPublisher(ctx context.Context, conf *config.AppConfig, hub *v1.LiveHub) (service.Publisher, func()) {
	var (
		publishers notify.Fanout
		closers    []func()
	)

	if client := notify.NewRedisClient(conf.Redis); client != nil {
		redisPublisher := notify.NewRedisPublisher(client, conf.Redis.Channel)
		go redisPublisher.Subscribe(ctx, hub)
		publishers = append(publishers, redisPublisher)
		closers = append(closers, func() { _ = client.Close() })
	} else {
		publishers = append(publishers, notify.NewLocal(hub))
	}

	if conf.RabbitMQ != nil && conf.RabbitMQ.URL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Queue)
		if err != nil {
			zap.L().Warn("rabbitmq unreachable, won spins are not queued", zap.Error(err))
		} else {
			publishers = append(publishers, amqpPublisher)
			closers = append(closers, func() { _ = amqpPublisher.Close() })
		}
	}

	return publishers, func() {
		for _, c := range closers {
			c()
		}
	}
}

func initImageStore(conf *config.CloudinaryConfig) (service.ImageStore, error) {
	if conf == nil || !conf.Enabled() {
		zap.L().Info("cloudinary not configured, gift image uploads are disabled")
		return nil, nil
	}

	images, err := storage.NewCloudinary(conf)
	if err != nil {
		return nil, err
	}

	return images, nil
}
