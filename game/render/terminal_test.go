package render

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gridpath/game/engine"
)

func solve(t *testing.T, eng *engine.Engine, start, end engine.Coordinate) engine.Frame {
	t.Helper()
	require.NoError(t, eng.Initialize(start, end))
	for !eng.Status().Terminal() {
		_, err := eng.Advance()
		require.NoError(t, err)
	}
	if eng.Status() == engine.StatusSucceeded {
		_, err := eng.MarkPath()
		require.NoError(t, err)
	}
	return eng.Frame()
}

func TestTerminal_RenderPlain(t *testing.T) {
	eng, err := engine.NewEngine(2, 2, []engine.Coordinate{{X: 1, Y: 0}})
	require.NoError(t, err)
	require.NoError(t, eng.Initialize(engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 1, Y: 1}))

	out := NewTerminal(false).Render(eng.Frame())
	want := strings.Join([]string{
		"╭───┬───╮",
		"│ S │ x │",
		"├───┼───┤",
		"│   │ E │",
		"╰───┴───╯",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestTerminal_RenderPathConnectors(t *testing.T) {
	eng, err := engine.NewEngine(3, 1, nil)
	require.NoError(t, err)

	frame := solve(t, eng, engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 2, Y: 0})
	out := NewTerminal(false).Render(frame)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "│ S███████E │", lines[1])
}

func TestTerminal_RenderVerticalConnectors(t *testing.T) {
	eng, err := engine.NewEngine(1, 3, nil)
	require.NoError(t, err)

	frame := solve(t, eng, engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 0, Y: 2})
	out := NewTerminal(false).Render(frame)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "├─█─┤", lines[2])
	assert.Equal(t, "│ █ │", lines[3])
	assert.Equal(t, "├─█─┤", lines[4])
}

func TestTerminal_RenderEmptyFrame(t *testing.T) {
	assert.Empty(t, NewTerminal(false).Render(engine.Frame{}))
}

func TestTerminal_ColorKeepsLayout(t *testing.T) {
	eng, err := engine.NewEngine(3, 3, nil)
	require.NoError(t, err)
	frame := solve(t, eng, engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 2, Y: 2})

	plain := NewTerminal(false).Render(frame)
	colored := NewTerminal(true).Render(frame)
	assert.Equal(t, strings.Count(plain, "\n"), strings.Count(colored, "\n"))
	assert.Contains(t, colored, "S")
}

func TestTerminal_Summary(t *testing.T) {
	eng, err := engine.NewEngine(4, 1, nil)
	require.NoError(t, err)
	frame := solve(t, eng, engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 3, Y: 0})

	term := NewTerminal(false)
	summary := term.Summary(frame)
	assert.Contains(t, summary, "status: succeeded")
	assert.Contains(t, summary, "path: 3 moves")
	assert.Contains(t, term.Legend(), "x obstacle")
}

func TestPlayer_StepsAndLoops(t *testing.T) {
	sc := &engine.Scenario{Name: "strip", Width: 5, Height: 1}
	eng, err := sc.NewEngine()
	require.NoError(t, err)

	cfg := PlayerConfig{
		Interval: time.Millisecond,
		Hold:     2 * time.Millisecond,
		Loop:     true,
		Start:    &engine.Coordinate{X: 0, Y: 0},
		End:      &engine.Coordinate{X: 4, Y: 0},
	}
	p, err := NewPlayer(eng, sc, rand.New(rand.NewPCG(1, 1)), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Rounds())
	assert.NotNil(t, p.Init())

	tick := tickMsg(time.Now())
	for i := 0; i < 5; i++ {
		_, cmd := p.Update(tick)
		assert.NotNil(t, cmd)
	}
	assert.Equal(t, engine.StatusSucceeded, p.Frame().Status)
	assert.Len(t, p.Frame().Path, 5)
	assert.Contains(t, p.View(), "1 solved")

	// held for two ticks, then a new round starts
	p.Update(tick)
	p.Update(tick)
	assert.Equal(t, 2, p.Rounds())
	assert.Equal(t, engine.StatusInProgress, p.Frame().Status)
	assert.NoError(t, p.Err())
}

func TestPlayer_Keys(t *testing.T) {
	sc := engine.DefaultScenario()
	eng, err := sc.NewEngine()
	require.NoError(t, err)

	p, err := NewPlayer(eng, sc, rand.New(rand.NewPCG(9, 9)), PlayerConfig{Interval: time.Millisecond})
	require.NoError(t, err)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	assert.True(t, p.Paused())

	p.Update(tickMsg(time.Now()))
	assert.Equal(t, 0, p.Frame().Stats.Steps, "paused player ignores ticks")

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	assert.Equal(t, 1, p.Frame().Stats.Steps, "single step while paused")

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, 2, p.Rounds())
	assert.Equal(t, 0, p.Frame().Stats.Steps)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPlayer_FixedStartRandomGoal(t *testing.T) {
	sc := &engine.Scenario{Name: "pair", Width: 2, Height: 1}
	eng, err := sc.NewEngine()
	require.NoError(t, err)

	start := engine.Coordinate{X: 1, Y: 0}
	for seed := uint64(0); seed < 20; seed++ {
		p, err := NewPlayer(eng, sc, rand.New(rand.NewPCG(seed, seed)), PlayerConfig{Interval: time.Millisecond, Start: &start})
		require.NoError(t, err)
		assert.Equal(t, start, p.Frame().Start, "seed %d", seed)
		assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, p.Frame().End, "seed %d", seed)

		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
		assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, p.Frame().End, "seed %d", seed)
	}
}
