package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/handler"
	"github.com/voltride/rental-service/internal/repository"
	"github.com/voltride/rental-service/internal/server"
	"github.com/voltride/rental-service/internal/service"
	"github.com/voltride/rental-service/migrations"
	"github.com/voltride/rental-service/pkg/breaker"
	"github.com/voltride/rental-service/pkg/kafka"
	"github.com/voltride/rental-service/pkg/logger"
	"github.com/voltride/rental-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "rental")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo init %w", err)
	}

	var publisher kafka.Publisher = kafka.NopPublisher{}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		// Notifications are a collaborator concern; the core keeps
		// serving without the broker.
		log.Error("kafka producer", zap.Error(err))
	} else {
		publisher = kafka.NewBreakerPublisher(
			kafka.NewPublisher(producer),
			breaker.New(20, 30*time.Second, 0.5, 3),
		)
		defer producer.Close() //nolint:errcheck
	}

	tokenSvc := service.NewTokenService(repo, repo, cfg.Token, cfg.Policy.PickupWindow, log)
	walletSvc := service.NewWalletService(repo, log)
	reservationSvc := service.NewReservationService(repo, repo, walletSvc, tokenSvc, publisher, cfg.Policy, log)
	handoverSvc := service.NewHandoverService(repo, repo, repo, walletSvc, publisher, cfg.Policy, log)

	h := handler.New(reservationSvc, tokenSvc, handoverSvc, walletSvc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g := new(errgroup.Group)
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		termSig := <-sig

		log.Debug("Graceful shutdown", zap.Any("signal", termSig))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
