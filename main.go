// Command gridpath serves and visualizes incremental A* searches on grids.
//
// Subcommands:
//  1. "serve" runs the HTTP server exposing the REST API, websocket frame
//     stream, browser viewer and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//  3. "solve" runs one search headless and prints the result, optionally
//     animated
//  4. "watch" plays searches in the terminal, looping with new endpoints
//
// Flags fall back to environment variables, and a .env file in the working
// directory is loaded first.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "gridpath"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "incremental A* search on grids: server, MCP tools and terminal player",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("GRIDPATH_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format: text or json",
				Value:   "text",
				Sources: cli.EnvVars("GRIDPATH_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "scenario-dir",
				Usage:   "directory containing scenario files",
				Value:   "scenarios",
				Sources: cli.EnvVars("SCENARIO_DIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			format := cmd.String("log-format")
			if format != "text" && format != "json" {
				return ctx, fmt.Errorf("unknown log format %q", format)
			}
			setupLogging(cmd.Root().ErrWriter, format, cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			solveCommand(),
			watchCommand(),
		},
	}
}

// setupLogging installs the default slog logger
func setupLogging(w io.Writer, format string, debug bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: debug}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// services bundles the wired managers and the search service
type services struct {
	search    service.SearchService
	sessions  *session.Manager
	scenarios *config.Manager
}

// initializeServices wires session/scenario managers and the search service.
// The scenario directory is created when missing so new scenarios can be
// saved.
func initializeServices(scenarioDir string) (*services, error) {
	if err := os.MkdirAll(scenarioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}

	scenarioManager, err := config.NewManager(scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario manager: %w", err)
	}

	sessionManager := session.NewManager()

	return &services{
		search:    service.NewSearchService(sessionManager, scenarioManager),
		sessions:  sessionManager,
		scenarios: scenarioManager,
	}, nil
}

// parseCoordinate reads "x,y"
func parseCoordinate(s string) (engine.Coordinate, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return engine.Coordinate{}, fmt.Errorf("coordinate %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return engine.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return engine.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	return engine.Coordinate{X: x, Y: y}, nil
}

// optionalCoordinate parses a flag value, where empty means unset
func optionalCoordinate(s string) (*engine.Coordinate, error) {
	if s == "" {
		return nil, nil
	}
	c, err := parseCoordinate(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
