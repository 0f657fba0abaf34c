package engine

import (
	"fmt"
	"math/rand/v2"
)

// PickEndpoints chooses a start and goal for the scenario. Fixed endpoints
// are used as given; the rest are drawn uniformly from passable cells, the
// goal from EndRegion when one is set. The goal differs from the start
// whenever another candidate exists.
func PickEndpoints(rng *rand.Rand, eng *Engine, sc *Scenario) (start, end Coordinate, err error) {
	everywhere := Region{Max: Coordinate{X: eng.Width() - 1, Y: eng.Height() - 1}}

	if sc != nil && sc.Start != nil {
		start = *sc.Start
	} else {
		start, err = pickFree(rng, eng, everywhere, nil)
		if err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
	}

	if sc != nil && sc.End != nil {
		return start, *sc.End, nil
	}

	region := everywhere
	if sc != nil && sc.EndRegion != nil {
		region = *sc.EndRegion
	}

	end, err = pickFree(rng, eng, region, &start)
	if err != nil {
		return start, end, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// pickFree draws a passable cell inside region, avoiding exclude unless it
// is the only one
func pickFree(rng *rand.Rand, eng *Engine, region Region, exclude *Coordinate) (Coordinate, error) {
	var candidates []Coordinate
	excluded := false

	for y := region.Min.Y; y <= region.Max.Y; y++ {
		for x := region.Min.X; x <= region.Max.X; x++ {
			c := Coordinate{X: x, Y: y}
			if !eng.Passable(c) {
				continue
			}
			if exclude != nil && c == *exclude {
				excluded = true
				continue
			}
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		if excluded {
			return *exclude, nil
		}
		return Coordinate{}, fmt.Errorf("%w in %s-%s", ErrNoFreeCell, region.Min, region.Max)
	}

	if rng == nil {
		return candidates[rand.IntN(len(candidates))], nil
	}
	return candidates[rng.IntN(len(candidates))], nil
}
