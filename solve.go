package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/render"
	"golang.org/x/time/rate"
)

const clearScreen = "\033[H\033[2J"

// scenarioFlags select the grid and endpoints for solve and watch
func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "scenario",
			Aliases: []string{"s"},
			Usage:   "scenario ID from the scenario directory (default scenario when empty)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "load the scenario from this JSON or YAML file instead",
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "start cell as x,y (overrides the scenario)",
		},
		&cli.StringFlag{
			Name:  "end",
			Usage: "goal cell as x,y (overrides the scenario)",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "random seed for endpoint selection (0 picks one)",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:  "solve",
		Usage: "run one search and print the explored grid and path",
		Flags: append(scenarioFlags(),
			&cli.BoolFlag{
				Name:  "animate",
				Usage: "redraw the grid after every expansion step",
			},
			&cli.FloatFlag{
				Name:  "fps",
				Usage: "animation frames per second",
				Value: 30,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			if w == nil {
				w = os.Stdout
			}

			sc, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			start, end, err := endpointOverrides(cmd)
			if err != nil {
				return err
			}

			opts := solveOptions{
				start:   start,
				end:     end,
				rng:     newRand(cmd.Uint64("seed")),
				color:   !cmd.Bool("no-color") && isTerminal(w),
				animate: cmd.Bool("animate"),
				fps:     cmd.Float("fps"),
			}
			return solve(ctx, w, sc, opts)
		},
	}
}

type solveOptions struct {
	start, end *engine.Coordinate
	rng        *rand.Rand
	color      bool
	animate    bool
	fps        float64
}

// solve runs a search to completion on a fresh engine and reports it to w.
// It returns an error wrapping engine.ErrNoPathExists when the goal is
// unreachable.
func solve(ctx context.Context, w io.Writer, sc *engine.Scenario, opts solveOptions) error {
	eng, err := sc.NewEngine()
	if err != nil {
		return err
	}

	picked := *sc
	if opts.start != nil {
		picked.Start = opts.start
	}
	if opts.end != nil {
		picked.End = opts.end
	}

	start, end, err := engine.PickEndpoints(opts.rng, eng, &picked)
	if err != nil {
		return err
	}
	if err := eng.Initialize(start, end); err != nil {
		return err
	}

	term := render.NewTerminal(opts.color)

	var limiter *rate.Limiter
	if opts.animate {
		fps := opts.fps
		if fps <= 0 {
			fps = 30
		}
		limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}

	status := eng.Status()
	for !status.Terminal() {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if status, err = eng.Advance(); err != nil {
			return err
		}

		if limiter != nil {
			fmt.Fprint(w, clearScreen)
			fmt.Fprintln(w, term.Render(eng.Frame()))
			fmt.Fprintln(w, term.Summary(eng.Frame()))
		}
	}

	var path []engine.Coordinate
	if status == engine.StatusSucceeded {
		if path, err = eng.MarkPath(); err != nil {
			return err
		}
	}

	frame := eng.Frame()
	if limiter != nil {
		fmt.Fprint(w, clearScreen)
	}
	fmt.Fprintln(w, term.Render(frame))
	fmt.Fprintln(w, term.Summary(frame))
	fmt.Fprintln(w, term.Legend())

	if status == engine.StatusFailed {
		return fmt.Errorf("%s to %s: %w", start, end, engine.ErrNoPathExists)
	}

	steps := make([]string, len(path))
	for i, c := range path {
		steps[i] = c.String()
	}
	fmt.Fprintf(w, "path (%d moves): %s\n", len(path)-1, strings.Join(steps, " → "))
	return nil
}

func watchCommand() *cli.Command {
	defaults := render.DefaultPlayerConfig()

	return &cli.Command{
		Name:  "watch",
		Usage: "animate searches in the terminal, looping with new endpoints",
		Flags: append(scenarioFlags(),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "delay between expansion steps",
				Value: defaults.Interval,
			},
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "how long a finished search stays on screen",
				Value: defaults.Hold,
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "keep the first finished search on screen instead of looping",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !isTerminal(os.Stdout) {
				return errors.New("watch needs a terminal; use solve for plain output")
			}

			sc, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			start, end, err := endpointOverrides(cmd)
			if err != nil {
				return err
			}
			eng, err := sc.NewEngine()
			if err != nil {
				return err
			}

			cfg := render.PlayerConfig{
				Interval: cmd.Duration("interval"),
				Hold:     cmd.Duration("hold"),
				Loop:     !cmd.Bool("once"),
				Color:    !cmd.Bool("no-color"),
				Start:    start,
				End:      end,
			}
			player, err := render.NewPlayer(eng, sc, newRand(cmd.Uint64("seed")), cfg)
			if err != nil {
				return err
			}

			p := tea.NewProgram(player, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("player: %w", err)
			}
			return player.Err()
		},
	}
}

// loadScenario resolves --file, then --scenario against the scenario
// directory. Without a directory only the built-in default is available.
func loadScenario(cmd *cli.Command) (*engine.Scenario, error) {
	if file := cmd.String("file"); file != "" {
		return engine.LoadScenario(file)
	}

	id := cmd.String("scenario")
	dir := cmd.String("scenario-dir")

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		manager, err := config.NewManager(dir)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return manager.GetDefault(), nil
		}
		return manager.LoadScenario(id)
	}

	if id == "" || strings.EqualFold(id, config.DefaultScenarioID) {
		return engine.DefaultScenario(), nil
	}
	return nil, fmt.Errorf("%w: %s (scenario directory %s not found)", config.ErrScenarioNotFound, id, dir)
}

func endpointOverrides(cmd *cli.Command) (start, end *engine.Coordinate, err error) {
	if start, err = optionalCoordinate(cmd.String("start")); err != nil {
		return nil, nil, fmt.Errorf("--start: %w", err)
	}
	if end, err = optionalCoordinate(cmd.String("end")); err != nil {
		return nil, nil, fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
