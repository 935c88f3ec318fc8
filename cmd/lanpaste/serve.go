package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/bridge"
	"go.klb.dev/lanpaste/internal/clip"
	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/logging"
	"go.klb.dev/lanpaste/internal/metrics"
	"go.klb.dev/lanpaste/internal/server"
)

const defaultPort = 8080

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LAN page, WebSocket hub and local clipboard bridge",
		Long: `Starts the lanpaste daemon. Phones on the LAN open the printed URL; every
text a phone sends is broadcast to all open pages and queued here for
"lanpaste pop". Local clipboard changes are reported to "lanpaste events" and,
with --auto-push, sent to the pages too.

Config file search order:
  /etc/lanpaste/lanpaste.toml
  $HOME/.config/lanpaste/lanpaste.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → LANPASTE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("host", server.DefaultHost, "bind host")
	f.Int("port", defaultPort, "TCP port for the page and WebSocket (0 = any free port)")
	f.String("advertise", "", "address shown in the page (default: detected LAN address)")
	f.String("template", "", "HTML template with {{HOST}} and {{PORT}} placeholders (default: built-in page)")
	f.Bool("watch-template", false, "reload --template when the file changes")
	f.String("echo", string(server.EchoAll), "echo policy: all (sender gets its own text back) | others")
	f.Int("backlog-size", 1000, "max queued texts before the oldest is dropped (0 = unbounded)")
	f.Bool("auto-push", false, "push every local clipboard change to the web clients")
	f.Bool("no-clipboard", false, "disable local clipboard integration")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	log := setupLogging(v)

	echo, err := server.ParseEchoPolicy(v.GetString("echo"))
	if err != nil {
		return err
	}
	if ipc.IsRunning() {
		return fmt.Errorf("a lanpaste daemon is already running (%s)", ipc.SocketPath())
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var backend clip.Backend
	if !v.GetBool("no-clipboard") {
		backend = clip.New(log)
		defer backend.Close()
	}

	log.Info("lanpaste starting",
		"version", Version,
		"host", v.GetString("host"),
		"port", v.GetInt("port"),
		"echo", echo,
		"clipboard", backend != nil,
	)

	svc := bridge.New(bridge.Config{
		TemplatePath:  v.GetString("template"),
		WatchTemplate: v.GetBool("watch-template"),
		Host:          v.GetString("host"),
		Port:          v.GetInt("port"),
		Advertise:     v.GetString("advertise"),
		Echo:          echo,
		BacklogSize:   v.GetInt("backlog-size"),
		Clipboard:     backend,
		AutoPush:      v.GetBool("auto-push"),
		Logger:        log,
		Metrics:       m,
	})
	defer svc.Dispose()

	events, cancelEvents := svc.Subscribe(0)
	logged := make(chan struct{})
	go func() {
		logEvents(log, events)
		close(logged)
	}()
	defer func() {
		cancelEvents()
		<-logged
	}()

	svc.Init(ctx)
	if svc.State() != bridge.StateRunning {
		return errors.New("sync server did not start")
	}

	// IPC socket for push/pop/status/events
	ipcLn, err := ipc.Listen()
	if err != nil {
		log.Warn("IPC socket unavailable", "err", err)
	} else {
		log.Info("IPC socket listening", "path", ipc.SocketPath())
		defer ipcLn.Close()
		go ipc.Serve(ipcLn, svc, log)
	}

	if addr := v.GetString("metrics-addr"); addr != "" {
		msrv, err := startMetrics(addr, reg, log)
		if err != nil {
			return err
		}
		defer msrv.Close()
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// logEvents is the daemon's own presentation of the event stream.
func logEvents(log *slog.Logger, events <-chan bridge.Event) {
	for ev := range events {
		switch ev.Source {
		case bridge.SourceServerInfo:
			log.Info(ev.Text)
		case bridge.SourceServer:
			log.Info("text received", "preview", logging.Preview(ev.Text))
		case bridge.SourceClipboard:
			log.Debug("clipboard changed", "preview", logging.Preview(ev.Text))
		}
	}
}

func startMetrics(addr string, g prometheus.Gatherer, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler(g))

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "err", err)
		}
	}()
	log.Info("metrics listening", "addr", ln.Addr().String())
	return srv, nil
}
