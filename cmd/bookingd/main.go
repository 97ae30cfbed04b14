package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sal186/rouze-booking-agent/internal/booking"
	"github.com/sal186/rouze-booking-agent/internal/calendar"
	"github.com/sal186/rouze-booking-agent/internal/catalog"
	"github.com/sal186/rouze-booking-agent/internal/config"
	"github.com/sal186/rouze-booking-agent/internal/metrics"
	"github.com/sal186/rouze-booking-agent/internal/notify"
	"github.com/sal186/rouze-booking-agent/internal/store/postgres"
	httptransport "github.com/sal186/rouze-booking-agent/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "bookingd"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "bookingd"),
	)
	slog.SetDefault(log)

	addr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	log.Info("starting", slog.String("http_addr", addr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Error("migration failed", slog.Any("err", err))
		os.Exit(1)
	}

	var cal booking.Calendar = calendar.Disabled{}
	if cfg.GoogleEnabled() {
		g, err := calendar.NewGoogle(context.Background(), calendar.Config{
			ClientEmail: cfg.GoogleClientEmail,
			PrivateKey:  cfg.GooglePrivateKey,
		}, log)
		if err != nil {
			log.Error("google calendar setup failed", slog.Any("err", err))
			os.Exit(1)
		}
		cal = g
		log.Info("google calendar mirroring enabled", slog.String("client_email", cfg.GoogleClientEmail))
	}

	var notifier booking.Notifier = notify.Disabled{}
	if cfg.MailEnabled() {
		notifier = notify.NewMailer(notify.Config{
			Host:          cfg.SMTPHost,
			Port:          cfg.SMTPPort,
			Username:      cfg.SMTPUsername,
			Password:      cfg.SMTPPassword,
			From:          cfg.SMTPFrom,
			RatePerSecond: cfg.SMTPRatePerSecond,
		}, log)
		log.Info("email notifications enabled", slog.String("smtp_host", cfg.SMTPHost))
	}

	m := metrics.New("bookingd")

	bookingRepo := postgres.NewBookingRepo(db)
	scheduleRepo := postgres.NewScheduleRepo(db)

	bookingSvc := booking.NewService(bookingRepo, scheduleRepo, cal, notifier, m, log)
	catalogSvc := catalog.NewService(scheduleRepo, log)

	server := httptransport.NewServer(bookingSvc, catalogSvc, httptransport.Options{
		AdminToken:     cfg.AdminToken,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	}, log)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(server.Router(), cfg.RequestTimeout, `{"error":{"code":"timeout","message":"request timed out"}}`),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, httpServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = s.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
