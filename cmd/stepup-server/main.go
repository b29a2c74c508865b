// Command stepup-server runs the step-up verification engine as an HTTP
// gateway. Verification endpoints live under /tfa, administration under
// /admin, and every other request is evaluated against the access rules
// and then proxied to the configured upstream.
//
// Usage:
//
//	stepup-server -config stepup.toml
//	stepup-server seed-user <login> [password]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/gateway"
	"github.com/MrEthical07/goStepUp/identity"
	"github.com/MrEthical07/goStepUp/internal/logger"
	"github.com/MrEthical07/goStepUp/metrics/export/prometheus"
	"github.com/MrEthical07/goStepUp/password"
	"github.com/MrEthical07/goStepUp/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", getEnv("STEPUP_CONFIG", ""), "path to a TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	setupLogging(cfg)
	log := logger.Log()

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		log.WithError(err).Fatal("password hasher")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.WithError(err).Fatal("ensure data directory")
	}
	store, err := sqlstore.Open(cfg.DatabasePath, hasher)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}

	if args := flag.Args(); len(args) > 0 && args[0] == "seed-user" {
		if len(args) < 2 || len(args) > 3 {
			log.Fatalf("usage: %s seed-user <login> [password]", os.Args[0])
		}
		pw := ""
		if len(args) == 3 {
			pw = args[2]
		} else if pw, err = readPassword(); err != nil {
			log.WithError(err).Fatal("read password")
		}
		uid, err := store.CreateUser(context.Background(), args[1], pw)
		if err != nil {
			log.WithError(err).Fatal("create user")
		}
		log.WithField("user_id", uid).Info("user created")
		return
	}

	if err := run(cfg, store, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// readPassword prompts on the terminal without echo.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass the password as an argument")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// setupLogging sends logs to stdout and a rotated file.
func setupLogging(cfg serverConfig) {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
	}
	logger.Init(cfg.Debug, out)
}

func run(cfg serverConfig, store *sqlstore.Store, log *logrus.Entry) error {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ids, err := identity.NewManager(identity.Config{
		TTL:           cfg.IdentityTTL,
		SigningMethod: identity.MethodHS256,
		PrivateKey:    []byte(cfg.SigningKey),
		Issuer:        "stepup-server",
	})
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	builder := goStepUp.New().
		WithConfig(cfg.Engine).
		WithRedis(rdb).
		WithRuleStore(store).
		WithUserStore(store).
		WithLogger(log).
		WithAuditSink(goStepUp.NewLogSink(log.WithField("component", "audit")))
	if cfg.SMSURL != "" {
		sms, err := gateway.NewSMS(cfg.SMSURL, nil, log.WithField("component", "sms"))
		if err != nil {
			return err
		}
		builder.WithGateway(sms)
	}
	var notifier *gateway.Notifier
	if len(cfg.AdminURLs) > 0 {
		if notifier, err = gateway.NewNotifier(cfg.AdminURLs, nil); err != nil {
			return err
		}
		builder.WithNotifier(notifier)
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if cfg.ReportSchedule != "" && notifier != nil {
		reports, err := startReports(cfg.ReportSchedule, newUsageReport(engine, notifier, log.WithField("component", "report")))
		if err != nil {
			return err
		}
		defer reports.Stop()
	}

	a := &app{
		engine:     engine,
		store:      store,
		identity:   ids,
		sends:      newIPLimiter(cfg.SendRate, cfg.SendBurst),
		logins:     newIPLimiter(cfg.SendRate, cfg.SendBurst),
		exporter:   prometheus.NewPrometheusExporter(engine),
		loginURL:   cfg.LoginURL,
		adminToken: cfg.AdminToken,
		log:        log,
	}
	if cfg.Upstream != "" {
		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			return fmt.Errorf("upstream: %w", err)
		}
		a.upstream = httputil.NewSingleHostReverseProxy(target)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newRouter(a, cfg.Debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.Listen).Info("stepup-server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
