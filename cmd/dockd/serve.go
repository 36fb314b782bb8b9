package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Zereker/dock"
	"github.com/Zereker/dock/command"
)

func serveCmd() *cobra.Command {
	var (
		configPath    string
		listen        string
		metricsListen string
		logLevel      string
		sessionType   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept docking connections",
		Long: `Accept docking connections over TCP, dock each device and log the
commands it sends until it disconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Listen = listen
			}
			if flags.Changed("metrics-listen") {
				cfg.MetricsListen = metricsListen
			}
			if flags.Changed("log-level") {
				if cfg.LogLevel, err = parseLevel(logLevel); err != nil {
					return err
				}
			}
			if flags.Changed("session") {
				if cfg.SessionType, err = parseSessionType(sessionType); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "TCP listen address")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Prometheus metrics listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&sessionType, "session", "", "Session type offered to devices")

	return cmd
}

func serve(ctx context.Context, cfg config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	addr, err := net.ResolveTCPAddr("tcp", cfg.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen address %q", cfg.Listen)
	}

	opts := cfg.sessionOptions()
	if cfg.MetricsListen != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, dock.MetricsOption(dock.NewMetrics(reg)))
		stopMetrics := serveMetrics(cfg.MetricsListen, reg, logger)
		defer stopMetrics()
	}

	server, err := dock.New(addr,
		dock.ServerLoggerOption(logger),
		dock.ServerShutdownTimeoutOption(cfg.ShutdownTimeout),
		dock.ServerSessionOption(opts...),
	)
	if err != nil {
		return err
	}
	defer server.Close()

	err = server.Serve(ctx, sessionLogger(logger, cfg.SessionType))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sessionLogger docks each device and logs its commands.
func sessionLogger(logger *slog.Logger, sessionType int32) dock.Handler {
	return dock.HandlerFunc(func(ctx context.Context, s *dock.Session) error {
		log := logger.With("remote_addr", s.RemoteAddr)
		s.Commands.AddListener(&dock.CommandListenerFuncs{
			Received: func(c command.Command) { log.Info("received", "command", describe(c)) },
			Sent:     func(c command.Command) { log.Debug("sent", "command", describe(c)) },
			Error:    func(err error) { log.Warn("bad command", "error", err) },
		})

		greeting, err := s.Dock(ctx, sessionType)
		if err != nil {
			return err
		}
		log.Info("docked", "name", greeting.Name, "protocol", greeting.ProtocolVersion)
		return s.Wait()
	})
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
