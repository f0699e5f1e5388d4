// Command parleyd is the parley server daemon.
package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/answer"
	"github.com/parleyhq/parley/bolt"
	"github.com/parleyhq/parley/chat"
	"github.com/parleyhq/parley/http"
	"github.com/parleyhq/parley/kit/cli"
	kithttp "github.com/parleyhq/parley/kit/transport/http"
	"github.com/parleyhq/parley/logger"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/settings"
	"github.com/parleyhq/parley/tenant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serverShutdownTimeout = 10 * time.Second

func main() {
	var opts options
	prog := &cli.Program{
		Name: "parleyd",
		Run:  func() error { return run(&opts) },
		Opts: []cli.Opt{
			cli.NewOpt(&opts.boltPath, "bolt-path", "parleyd.bolt", "path to the bolt database file"),
			cli.NewOpt(&opts.httpBindAddress, "http-bind-address", ":8700", "bind address for the HTTP server"),
			cli.NewOpt(&opts.sessionLength, "session-length", parley.DefaultSessionLength, "lifetime of newly created sessions"),
			cli.NewOpt(&opts.sessionRenewDisabled, "session-renew-disabled", false, "disable sliding session expiration"),
			cli.NewOpt(&opts.logFormat, "log-format", "auto", "log output format: auto, logfmt, json or console"),
			cli.NewOpt(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error"),
		},
	}

	if err := cli.NewCommand(prog).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	boltPath             string
	httpBindAddress      string
	sessionLength        time.Duration
	sessionRenewDisabled bool
	logFormat            string
	logLevel             string
}

func run(opts *options) error {
	level, err := zapcore.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
	}

	log, err := logger.Config{Format: opts.logFormat, Level: level}.New(os.Stdout)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	kvStore := bolt.NewKVStore(log.With(zap.String("service", "bolt")), opts.boltPath)
	if err := kvStore.Open(ctx); err != nil {
		return err
	}
	defer kvStore.Close()

	tenantStore := tenant.NewStore(kvStore)

	var tenantSvc parley.TenantService = tenant.NewTenantSvc(tenantStore)
	tenantSvc = tenant.NewTenantMetrics(reg, tenantSvc)
	tenantSvc = tenant.NewTenantLogger(log.With(zap.String("service", "tenant")), tenantSvc)

	userSvc := tenant.NewUserSvc(tenantStore)
	var users parley.UserService = userSvc
	users = tenant.NewUserMetrics(reg, users)

	var passwords parley.PasswordsService = userSvc
	passwords = tenant.NewPasswordMetrics(reg, passwords)

	profileSvc := tenant.NewProfileSvc(tenantStore)

	var setupSvc parley.SetupService = tenant.NewSetupSvc(tenantStore)
	setupSvc = tenant.NewSetupMetrics(reg, setupSvc)
	setupSvc = tenant.NewSetupLogger(log.With(zap.String("service", "setup")), setupSvc)

	var sessionSvc parley.SessionService = session.NewService(session.NewStorage(kvStore), users, opts.sessionLength)
	sessionSvc = session.NewSessionMetrics(reg, sessionSvc)
	sessionSvc = session.NewSessionLogger(log.With(zap.String("service", "session")), sessionSvc)

	settingsSvc := settings.NewService(
		log.With(zap.String("service", "settings")),
		settings.NewSearchSettingsStore(kvStore),
		settings.NewUserSettingsStore(kvStore),
		tenantSvc, users, profileSvc,
	)

	var conversationSvc parley.ConversationService = chat.NewService(
		log.With(zap.String("service", "chat")),
		chat.NewStore(kvStore),
		settingsSvc,
		users, profileSvc,
		answer.NewStaticAnswerer(),
	)
	conversationSvc = chat.NewConversationMetrics(reg, conversationSvc)
	conversationSvc = chat.NewConversationLogger(log.With(zap.String("service", "chat")), conversationSvc)

	apiHandler := http.NewAPIHandler(&http.APIBackend{
		Logger:               log,
		HTTPErrorHandler:     kithttp.NewErrorHandler(),
		SessionRenewDisabled: opts.sessionRenewDisabled,
		SessionService:       sessionSvc,
		UserService:          users,
		PasswordsService:     passwords,
		TenantService:        tenantSvc,
		ProfileService:       profileSvc,
		SetupService:         setupSvc,
		SettingsService:      settingsSvc,
		ConversationService:  conversationSvc,
	})

	server := &nethttp.Server{
		Addr:    opts.httpBindAddress,
		Handler: http.NewRootHandler("parleyd", log, reg, apiHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", opts.httpBindAddress))
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
