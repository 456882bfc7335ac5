package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/api/routes"
	"github.com/ArowuTest/daily-lottery-backend/internal/config"
	"github.com/ArowuTest/daily-lottery-backend/internal/logging"
	"github.com/ArowuTest/daily-lottery-backend/internal/middleware"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
	"github.com/ArowuTest/daily-lottery-backend/internal/storage"
	"github.com/ArowuTest/daily-lottery-backend/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Server exiting")
}

// run opens the store and serves until a signal arrives. The store is closed
// on every return path.
func run(cfg *config.Config, log *logrus.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := storage.Open(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.WithError(err).Error("Error closing store")
			return
		}
		log.Info("Store closed")
	}()

	// Services
	clock := services.SystemClock{Location: loc}
	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	ballotService := services.NewBallotService(store.Ballots, services.NewDrawEngine(), clock, log)

	scheduler, err := services.NewScheduler(ballotService, cfg.Lottery.DrawSchedule, clock, cfg.Lottery.PollInterval, log)
	if err != nil {
		return fmt.Errorf("create draw scheduler: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start draw scheduler: %w", err)
	}

	stopCleanup := make(chan struct{})
	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, log)
		limiter.StartCleanup(10*time.Minute, stopCleanup)
	}

	router := routes.SetupRouter(cfg, routes.Dependencies{
		AuthService:   services.NewAuthService(store.Users, tokens, log),
		UserService:   services.NewUserService(store.Users),
		BallotService: ballotService,
		Tokens:        tokens,
		RateLimiter:   limiter,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":      cfg.Server.Port,
			"driver":    cfg.Store.Driver,
			"next_draw": scheduler.NextFire(),
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	var runErr error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server...")
	case runErr = <-serverErr:
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	close(stopCleanup)
	// A draw in progress finishes before the store is closed.
	scheduler.Stop()
	scheduler.Join()

	return runErr
}
