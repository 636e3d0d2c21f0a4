// Command create-admin creates the operator account, or resets its password
// when it already exists.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/cmd/app"
	"github.com/rouemaroc/spinwheel/internal/api/handler/v1/request"
	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/logger"
	"github.com/rouemaroc/spinwheel/internal/repository"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
	"github.com/rouemaroc/spinwheel/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		username   string
		password   string
	)
	pflag.StringVarP(&configPath, "config", "c", "./cmd/app/config.yml", "path of the config file")
	pflag.StringVarP(&username, "username", "u", "admin", "admin username")
	pflag.StringVarP(&password, "password", "p", "", "admin password, ADMIN_PASSWORD when empty")
	pflag.Parse()

	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if err := request.ValidatePassword(password); err != nil {
		return err
	}

	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}
	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	db, err := app.OpenDB(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := service.NewAuthService(repository.NewAdminRepository(dao.NewAdminDAO(db)))
	admin, created, err := svc.EnsureAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("svc.EnsureAdmin -> %w", err)
	}

	if created {
		zap.L().Info("admin created", zap.String("username", admin.Username), zap.String("id", admin.ID.String()))
	} else {
		zap.L().Info("admin password reset", zap.String("username", admin.Username))
	}

	return nil
}
