package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/api"
	"github.com/wricardo/gridpath/game/session"
	"github.com/wricardo/gridpath/internal/metrics"
	"github.com/wricardo/gridpath/transport/mcp"
	"github.com/wricardo/gridpath/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// serveOptions holds the resolved serve flags
type serveOptions struct {
	host            string
	port            int
	scenarioDir     string
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	ngrokEnabled    bool
	ngrokAuth       string
	ngrokDomain     string
}

func (o serveOptions) addr() string {
	return net.JoinHostPort(o.host, fmt.Sprint(o.port))
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server (REST API, websocket stream, viewer, /mcp)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "server host",
				Value:   "localhost",
				Sources: cli.EnvVars("GRIDPATH_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "server port",
				Value:   8080,
				Sources: cli.EnvVars("GRIDPATH_PORT", "PORT"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "drop sessions idle for longer than this",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("GRIDPATH_SESSION_TTL"),
			},
			&cli.DurationFlag{
				Name:  "cleanup-interval",
				Usage: "how often idle sessions are swept",
				Value: time.Hour,
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := serveOptions{
				host:            cmd.String("host"),
				port:            int(cmd.Int("port")),
				scenarioDir:     cmd.String("scenario-dir"),
				sessionTTL:      cmd.Duration("session-ttl"),
				cleanupInterval: cmd.Duration("cleanup-interval"),
				ngrokEnabled:    cmd.Bool("ngrok"),
				ngrokAuth:       cmd.String("ngrok-auth"),
				ngrokDomain:     cmd.String("ngrok-domain"),
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHTTPServer(ctx, opts)
		},
	}
}

// runHTTPServer serves the REST API, websocket hub and /mcp endpoint until
// ctx is done, then shuts down gracefully. Session sweeping, scenario file
// watching and the optional ngrok tunnel run alongside it.
func runHTTPServer(ctx context.Context, opts serveOptions) error {
	svcs, err := initializeServices(opts.scenarioDir)
	if err != nil {
		return err
	}

	hub := websocket.NewHub()
	apiServer := api.NewServer(svcs.search, hub)
	defer apiServer.Close()

	listener, err := net.Listen("tcp", opts.addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", opts.addr(), err)
	}
	baseURL := "http://" + loopbackAddr(listener.Addr())

	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()))
	mainRouter.Handle("/", apiServer)

	httpServer := &http.Server{
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("server starting",
			"addr", listener.Addr().String(),
			"scenarios", svcs.scenarios.Dir(),
			"version", Version)
		slog.Info("endpoints",
			"api", baseURL+"/api",
			"websocket", baseURL+"/ws?session=<session_id>",
			"mcp", baseURL+"/mcp",
			"viewer", baseURL+"/")

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		apiServer.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(gctx, svcs.sessions, opts.cleanupInterval, opts.sessionTTL)
		return nil
	})

	g.Go(func() error {
		// a broken watcher only costs hot reload
		if err := svcs.scenarios.Watch(gctx, nil); err != nil {
			slog.Warn("scenario hot reload disabled", "error", err)
		}
		return nil
	})

	if opts.ngrokEnabled {
		g.Go(func() error {
			return serveNgrok(gctx, opts, mainRouter)
		})
	}

	return g.Wait()
}

// loopbackAddr rewrites wildcard listen addresses so in-process clients can
// dial them
func loopbackAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		return fmt.Sprintf("127.0.0.1:%d", tcp.Port)
	}
	return tcp.String()
}

// serveNgrok tunnels handler through ngrok until ctx is done. A missing auth
// token or a failed tunnel is logged and leaves the local server running.
func serveNgrok(ctx context.Context, opts serveOptions, handler http.Handler) error {
	if opts.ngrokAuth == "" {
		slog.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		slog.Info("using custom ngrok domain", "domain", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		slog.Error("failed to start ngrok tunnel", "error", err)
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			slog.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	url := tun.URL()
	slog.Info("ngrok tunnel established",
		"url", url,
		"api", url+"/api",
		"websocket", url+"/ws?session=<session_id>",
		"mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("ngrok server error", "error", err)
	}
	return nil
}

// mcpHTTPHandler answers single JSON-RPC messages posted to /mcp
func mcpHTTPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications get no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// sessionCleanupRoutine drops idle sessions every interval until ctx is done
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				slog.Info("cleaned up expired sessions", "removed", removed, "remaining", manager.Count())
			}
			metrics.SessionsActive.Set(float64(manager.Count()))
		}
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server backed by an external or internal HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "HTTP API to reuse when it is reachable",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("GRIDPATH_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			baseURL, cleanup, err := resolveMCPBackend(ctx, cmd.String("api-url"), cmd.String("scenario-dir"))
			if err != nil {
				return err
			}
			defer cleanup()

			mcpClient := mcp.NewClient(baseURL)
			slog.Info("MCP stdio server ready", "api", baseURL)

			if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		},
	}
}

// resolveMCPBackend returns externalURL when an API answers there, otherwise
// starts an internal API on a random loopback port. cleanup stops whatever
// was started.
func resolveMCPBackend(ctx context.Context, externalURL, scenarioDir string) (string, func(), error) {
	slog.Info("checking for external API server", "url", externalURL)

	if externalURL != "" && apiAvailable(ctx, externalURL) {
		slog.Info("external API server found, using it for MCP", "url", externalURL)
		return externalURL, func() {}, nil
	}

	slog.Info("no external API server found, starting internal HTTP server")

	svcs, err := initializeServices(scenarioDir)
	if err != nil {
		return "", nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(svcs.search, hub)
	httpServer := &http.Server{Handler: apiServer}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("internal HTTP server error", "error", err)
		}
	}()
	go sessionCleanupRoutine(ctx, svcs.sessions, time.Hour, 24*time.Hour)

	cleanup := func() {
		cancel()
		apiServer.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		httpServer.Shutdown(shutdownCtx)
	}

	return "http://" + listener.Addr().String(), cleanup, nil
}

// apiAvailable probes the health endpoint of a gridpath API
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
