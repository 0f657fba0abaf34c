package render

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wricardo/gridpath/game/engine"
)

// PlayerConfig controls animated playback
type PlayerConfig struct {
	Interval time.Duration // delay between expansion steps
	Hold     time.Duration // how long a finished search stays on screen before looping
	Loop     bool          // start a new search with fresh endpoints after Hold
	Color    bool
	Start    *engine.Coordinate // fixed endpoints; nil draws from the scenario
	End      *engine.Coordinate
}

// DefaultPlayerConfig mirrors the classic demo pacing
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Interval: 16 * time.Millisecond,
		Hold:     3 * time.Second,
		Loop:     true,
		Color:    true,
	}
}

type tickMsg time.Time

// Player is a bubbletea model that advances a search one step per tick
type Player struct {
	eng      *engine.Engine
	scenario *engine.Scenario
	rng      *rand.Rand
	term     *Terminal
	cfg      PlayerConfig

	frame     engine.Frame
	paused    bool
	heldTicks int
	rounds    int
	solved    int
	err       error
}

// NewPlayer prepares a player and starts its first search
func NewPlayer(eng *engine.Engine, scenario *engine.Scenario, rng *rand.Rand, cfg PlayerConfig) (*Player, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPlayerConfig().Interval
	}

	p := &Player{
		eng:      eng,
		scenario: scenario,
		rng:      rng,
		term:     NewTerminal(cfg.Color),
		cfg:      cfg,
	}
	if err := p.restart(); err != nil {
		return nil, err
	}
	return p, nil
}

// Init starts the tick loop
func (p *Player) Init() tea.Cmd {
	return p.tick()
}

// Update handles ticks and keys
func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		case " ":
			p.paused = !p.paused
		case "s":
			if p.paused {
				p.step()
			}
		case "n":
			if err := p.restart(); err != nil {
				p.err = err
				return p, tea.Quit
			}
		}
		return p, nil

	case tickMsg:
		if !p.paused {
			if p.eng.Status().Terminal() {
				p.heldTicks++
				if p.cfg.Loop && time.Duration(p.heldTicks)*p.cfg.Interval >= p.cfg.Hold {
					if err := p.restart(); err != nil {
						p.err = err
						return p, tea.Quit
					}
				}
			} else {
				p.step()
			}
		}
		return p, p.tick()
	}

	return p, nil
}

// View draws the grid, progress and key help
func (p *Player) View() string {
	var b strings.Builder
	b.WriteString(p.term.Render(p.frame))
	b.WriteString(p.term.Summary(p.frame))
	b.WriteString("\n")
	b.WriteString(p.term.Legend())
	b.WriteString("\n")

	state := "running"
	if p.paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "round %d (%d solved) %s  |  space pause  s step  n new endpoints  q quit\n",
		p.rounds, p.solved, state)
	if p.err != nil {
		fmt.Fprintf(&b, "error: %v\n", p.err)
	}
	return b.String()
}

// Err returns the error that stopped playback, if any
func (p *Player) Err() error {
	return p.err
}

// Frame returns the frame currently on screen
func (p *Player) Frame() engine.Frame {
	return p.frame
}

// Paused reports whether playback is paused
func (p *Player) Paused() bool {
	return p.paused
}

// Rounds returns how many searches have been started
func (p *Player) Rounds() int {
	return p.rounds
}

func (p *Player) tick() tea.Cmd {
	return tea.Tick(p.cfg.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// step advances once and draws the path when the search succeeds
func (p *Player) step() {
	status, err := p.eng.Advance()
	if err != nil {
		p.err = err
		return
	}
	if status == engine.StatusSucceeded {
		if _, err := p.eng.MarkPath(); err != nil {
			p.err = err
		}
		p.solved++
	}
	p.frame = p.eng.Frame()
}

// restart begins a new search with fresh endpoints
func (p *Player) restart() error {
	var picked engine.Scenario
	if p.scenario != nil {
		picked = *p.scenario
	}
	if p.cfg.Start != nil {
		picked.Start = p.cfg.Start
	}
	if p.cfg.End != nil {
		picked.End = p.cfg.End
	}

	start, end, err := engine.PickEndpoints(p.rng, p.eng, &picked)
	if err != nil {
		return err
	}

	if err := p.eng.Initialize(start, end); err != nil {
		return err
	}
	p.rounds++
	p.heldTicks = 0
	p.frame = p.eng.Frame()
	return nil
}
