package optimize

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

var ErrInvalidRange = errors.New("invalid parameter range")

// IntRange is an inclusive integer sweep From, From+Step, ... <= To.
type IntRange struct {
	Name string `json:"name" yaml:"name"`
	From int    `json:"from" yaml:"from"`
	To   int    `json:"to" yaml:"to"`
	Step int    `json:"step" yaml:"step"`
}

func (r IntRange) Values() ([]int, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRange)
	}
	if r.Step <= 0 {
		return nil, fmt.Errorf("%w: %s step must be positive, got %d", ErrInvalidRange, r.Name, r.Step)
	}
	if r.From > r.To {
		return nil, fmt.Errorf("%w: %s from %d > to %d", ErrInvalidRange, r.Name, r.From, r.To)
	}
	var out []int
	for v := r.From; v <= r.To; v += r.Step {
		out = append(out, v)
	}
	return out, nil
}

// Grid is the cross-product of Ranges. Fixed values are copied into every
// combination; Valid, when set, drops combinations it rejects.
type Grid struct {
	Ranges []IntRange
	Fixed  strategy.Params
	Valid  func(strategy.Params) bool
}

// FastBelowSlow is the usual validity rule for crossover strategies.
func FastBelowSlow(p strategy.Params) bool {
	return p.Int("fast", 0) < p.Int("slow", 0)
}

// Combinations enumerates the grid with the first range outermost.
func (g Grid) Combinations() ([]strategy.Params, error) {
	if len(g.Ranges) == 0 {
		return nil, fmt.Errorf("%w: grid has no ranges", ErrInvalidRange)
	}
	values := make([][]int, len(g.Ranges))
	seen := map[string]bool{}
	for i, r := range g.Ranges {
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate range %q", ErrInvalidRange, r.Name)
		}
		seen[r.Name] = true
		v, err := r.Values()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	var out []strategy.Params
	idx := make([]int, len(values))
	for {
		p := g.Fixed.Clone()
		for i, r := range g.Ranges {
			p[r.Name] = decimal.NewFromInt(int64(values[i][idx[i]]))
		}
		if g.Valid == nil || g.Valid(p) {
			out = append(out, p)
		}

		// odometer, last range fastest
		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(values[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return out, nil
		}
	}
}

// Explicit returns independent copies of an explicit parameter list.
func Explicit(list []strategy.Params) []strategy.Params {
	out := make([]strategy.Params, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}
