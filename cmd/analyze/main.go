// Command analyze prints quick, human-readable checks of the scenario files
// in a directory. For each scenario it validates the file, then runs a
// number of searches between its endpoints (drawing random ones where the
// scenario leaves them open) and reports reachability, path lengths and how
// many cells the search expanded.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/engine"
	"golang.org/x/sync/errgroup"
)

// Report summarizes the searches run on one scenario file
type Report struct {
	File        string
	Name        string
	Width       int
	Height      int
	Obstacles   int
	Passable    int
	FixedStart  bool
	FixedEnd    bool
	Trials      int
	Reached     int
	Unreachable []Trial
	TotalMoves  int
	TotalSteps  int
	LongestPath int
	Err         error
}

// Trial is one start/goal pair that was searched
type Trial struct {
	Start, End engine.Coordinate
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "check scenario files for reachability and search cost",
		ArgsUsage: "[scenario files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "directory of scenario files, used when no files are given",
				Value:   "scenarios",
				Sources: cli.EnvVars("SCENARIO_DIR"),
			},
			&cli.IntFlag{
				Name:  "trials",
				Usage: "searches per scenario when endpoints are drawn at random",
				Value: 20,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "random seed for endpoint selection",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				if files, err = scenarioFiles(cmd.String("dir")); err != nil {
					return err
				}
			}
			if len(files) == 0 {
				return fmt.Errorf("no scenario files found in %s", cmd.String("dir"))
			}

			reports, err := analyzeAll(ctx, files, int(cmd.Int("trials")), cmd.Uint64("seed"))
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			for _, r := range reports {
				printReport(w, r)
			}
			return nil
		},
	}
}

// scenarioFiles lists the JSON and YAML files in dir, sorted
func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// analyzeAll analyzes files concurrently and returns reports in input order.
// Each file gets its own generator derived from seed so results do not
// depend on scheduling.
func analyzeAll(ctx context.Context, files []string, trials int, seed uint64) ([]*Report, error) {
	reports := make([]*Report, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			reports[i] = analyzeScenario(file, trials, rng)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// analyzeScenario loads one file and runs its searches. Load and validation
// failures are recorded on the report.
func analyzeScenario(path string, trials int, rng *rand.Rand) *Report {
	report := &Report{File: filepath.Base(path)}

	sc, err := engine.LoadScenario(path)
	if err != nil {
		report.Err = err
		return report
	}

	eng, err := sc.NewEngine()
	if err != nil {
		report.Err = err
		return report
	}

	report.Name = sc.Name
	report.Width = eng.Width()
	report.Height = eng.Height()
	report.Obstacles = len(eng.Obstacles())
	report.Passable = eng.Width()*eng.Height() - report.Obstacles
	report.FixedStart = sc.Start != nil
	report.FixedEnd = sc.End != nil

	if report.FixedStart && report.FixedEnd {
		trials = 1
	}
	if trials < 1 {
		trials = 1
	}

	for range trials {
		start, end, err := engine.PickEndpoints(rng, eng, sc)
		if err != nil {
			report.Err = err
			return report
		}
		if err := eng.Initialize(start, end); err != nil {
			report.Err = err
			return report
		}

		status, err := runToCompletion(eng)
		if err != nil {
			report.Err = err
			return report
		}

		report.Trials++
		report.TotalSteps += eng.Stats().Steps
		if status != engine.StatusSucceeded {
			report.Unreachable = append(report.Unreachable, Trial{Start: start, End: end})
			continue
		}

		path, err := eng.Path()
		if err != nil {
			report.Err = err
			return report
		}
		moves := len(path) - 1
		report.Reached++
		report.TotalMoves += moves
		report.LongestPath = max(report.LongestPath, moves)
	}

	return report
}

// runToCompletion advances s until its status is terminal
func runToCompletion(s engine.Searcher) (engine.Status, error) {
	status := s.Status()
	for !status.Terminal() {
		var err error
		if status, err = s.Advance(); err != nil {
			return status, err
		}
	}
	return status, nil
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", r.File)
	if r.Err != nil {
		fmt.Fprintf(w, "❌ ERROR: %v\n", r.Err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Obstacles: %d (%d passable cells)\n", r.Obstacles, r.Passable)
	fmt.Fprintf(w, "Endpoints: start %s, goal %s\n", endpointKind(r.FixedStart), endpointKind(r.FixedEnd))
	fmt.Fprintf(w, "Searches: %d, average expansion steps %.1f\n", r.Trials, float64(r.TotalSteps)/float64(r.Trials))

	if r.Reached > 0 {
		fmt.Fprintf(w, "Path length: average %.1f moves, longest %d\n",
			float64(r.TotalMoves)/float64(r.Reached), r.LongestPath)
	}

	if len(r.Unreachable) == 0 {
		fmt.Fprintf(w, "✅ Goal reached in all %d searches\n", r.Trials)
		return
	}

	fmt.Fprintf(w, "⚠️  WARNING: no path in %d of %d searches\n", len(r.Unreachable), r.Trials)
	for i, trial := range r.Unreachable {
		if i == 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(r.Unreachable)-5)
			break
		}
		fmt.Fprintf(w, "   Unreachable: %s -> %s\n", trial.Start, trial.End)
	}
}

func endpointKind(fixed bool) string {
	if fixed {
		return "fixed"
	}
	return "random"
}
