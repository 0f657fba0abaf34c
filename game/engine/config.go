package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Layout characters
const (
	LayoutEmpty    = '.'
	LayoutObstacle = 'x'
	LayoutWall     = '#'
	LayoutStart    = 'S'
	LayoutEnd      = 'E'
)

var ErrInvalidScenario = errors.New("invalid scenario")

var scenarioValidate *validator.Validate

func init() {
	scenarioValidate = validator.New(validator.WithRequiredStructEnabled())
	scenarioValidate.RegisterValidation("layoutrow", validateLayoutRow)
}

// validateLayoutRow accepts rows made only of layout characters
func validateLayoutRow(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch r {
		case LayoutEmpty, ' ', LayoutObstacle, LayoutWall, LayoutStart, LayoutEnd:
		default:
			return false
		}
	}
	return true
}

// Region is an inclusive rectangle of cells
type Region struct {
	Min Coordinate `json:"min" yaml:"min"`
	Max Coordinate `json:"max" yaml:"max"`
}

// Contains reports whether c lies inside the region
func (r Region) Contains(c Coordinate) bool {
	return c.X >= r.Min.X && c.X <= r.Max.X && c.Y >= r.Min.Y && c.Y <= r.Max.Y
}

// Scenario describes a grid, its obstacles and how endpoints are chosen.
// Obstacles may be given as coordinates, as an ASCII layout, or both.
type Scenario struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int          `json:"width" yaml:"width" validate:"gte=1,lte=200"`
	Height      int          `json:"height" yaml:"height" validate:"gte=1,lte=200"`
	Layout      []string     `json:"layout,omitempty" yaml:"layout,omitempty" validate:"omitempty,dive,layoutrow"`
	Obstacles   []Coordinate `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Start       *Coordinate  `json:"start,omitempty" yaml:"start,omitempty"`
	End         *Coordinate  `json:"end,omitempty" yaml:"end,omitempty"`
	EndRegion   *Region      `json:"end_region,omitempty" yaml:"end_region,omitempty"`
}

// normalize infers the size from the layout and lifts S/E markers into
// Start/End when those are unset
func (s *Scenario) normalize() {
	if len(s.Layout) > 0 {
		if s.Height == 0 {
			s.Height = len(s.Layout)
		}
		if s.Width == 0 {
			s.Width = len([]rune(s.Layout[0]))
		}
	}

	for y, row := range s.Layout {
		for x, r := range []rune(row) {
			c := Coordinate{X: x, Y: y}
			switch r {
			case LayoutStart:
				if s.Start == nil {
					s.Start = &c
				}
			case LayoutEnd:
				if s.End == nil {
					s.End = &c
				}
			}
		}
	}
}

// ObstacleCoordinates merges the layout obstacles with the explicit list,
// layout first, without duplicates
func (s *Scenario) ObstacleCoordinates() []Coordinate {
	seen := make(map[Coordinate]bool)
	var out []Coordinate

	for y, row := range s.Layout {
		for x, r := range []rune(row) {
			if r != LayoutObstacle && r != LayoutWall {
				continue
			}
			c := Coordinate{X: x, Y: y}
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}

	for _, c := range s.Obstacles {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	return out
}

// NewEngine builds an engine for the scenario's grid and obstacles
func (s *Scenario) NewEngine() (*Engine, error) {
	return NewEngine(s.Width, s.Height, s.ObstacleCoordinates())
}

// ValidateScenario normalizes the scenario in place and checks it for
// structural and semantic correctness
func ValidateScenario(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: scenario cannot be nil", ErrInvalidScenario)
	}
	s.normalize()

	if err := scenarioValidate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Param() != "" {
				return fmt.Errorf("%w: %s must satisfy %s=%s, got %v", ErrInvalidScenario, fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("%w: %s failed %s check", ErrInvalidScenario, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	if len(s.Layout) > 0 && len(s.Layout) != s.Height {
		return fmt.Errorf("%w: layout must have %d rows to match height, got %d", ErrInvalidScenario, s.Height, len(s.Layout))
	}

	starts, ends := 0, 0
	for i, row := range s.Layout {
		runes := []rune(row)
		if len(runes) != s.Width {
			return fmt.Errorf("%w: layout row %d must have %d characters to match width, got %d",
				ErrInvalidScenario, i+1, s.Width, len(runes))
		}
		for _, r := range runes {
			switch r {
			case LayoutStart:
				starts++
			case LayoutEnd:
				ends++
			}
		}
	}
	if starts > 1 || ends > 1 {
		return fmt.Errorf("%w: layout may contain at most one S and one E", ErrInvalidScenario)
	}

	inBounds := func(c Coordinate) bool {
		return c.X >= 0 && c.X < s.Width && c.Y >= 0 && c.Y < s.Height
	}

	blocked := make(map[Coordinate]bool)
	for _, c := range s.ObstacleCoordinates() {
		if !inBounds(c) {
			return fmt.Errorf("%w: obstacle %s outside %dx%d grid", ErrInvalidScenario, c, s.Width, s.Height)
		}
		blocked[c] = true
	}

	for name, c := range map[string]*Coordinate{"start": s.Start, "end": s.End} {
		if c == nil {
			continue
		}
		if !inBounds(*c) {
			return fmt.Errorf("%w: %s %s outside %dx%d grid", ErrInvalidScenario, name, *c, s.Width, s.Height)
		}
		if blocked[*c] {
			return fmt.Errorf("%w: %s %s is an obstacle", ErrInvalidScenario, name, *c)
		}
	}

	if r := s.EndRegion; r != nil {
		if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
			return fmt.Errorf("%w: end_region min %s must not exceed max %s", ErrInvalidScenario, r.Min, r.Max)
		}
		if !inBounds(r.Min) || !inBounds(r.Max) {
			return fmt.Errorf("%w: end_region %s-%s outside %dx%d grid", ErrInvalidScenario, r.Min, r.Max, s.Width, s.Height)
		}
	}

	return nil
}

// ParseScenario decodes a scenario in the given format ("json" or "yaml")
// and validates it
func ParseScenario(data []byte, format string) (*Scenario, error) {
	var s Scenario

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse yaml scenario: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse json scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}

	if err := ValidateScenario(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario loads a scenario file; the extension selects the format
func LoadScenario(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	format := strings.TrimPrefix(filepath.Ext(filename), ".")
	s, err := ParseScenario(data, format)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filepath.Base(filename), err)
	}
	return s, nil
}

// DefaultScenario returns the classic 20x20 demo: four walls, a fixed start
// in the lower-left and goals drawn from a band along the top.
func DefaultScenario() *Scenario {
	obstacles := []Coordinate{
		{11, 5}, {12, 5}, {13, 5}, {14, 5}, {15, 5}, {15, 6}, {15, 7}, {15, 8}, {15, 9},
		{2, 15}, {3, 15}, {4, 15}, {5, 15}, {6, 15}, {7, 15}, {8, 15}, {9, 15}, {10, 15},
		{0, 9}, {1, 9}, {2, 9}, {3, 9}, {4, 9}, {5, 9}, {6, 9}, {7, 9}, {8, 9},
		{13, 12}, {14, 12}, {15, 12}, {16, 12}, {17, 12}, {13, 13}, {13, 14}, {13, 15}, {13, 16},
	}

	return &Scenario{
		Name:        "classic",
		Description: "20x20 grid with four walls; start bottom-left, goal somewhere along the top",
		Width:       20,
		Height:      20,
		Obstacles:   obstacles,
		Start:       &Coordinate{X: 1, Y: 18},
		EndRegion: &Region{
			Min: Coordinate{X: 1, Y: 1},
			Max: Coordinate{X: 18, Y: 3},
		},
	}
}
