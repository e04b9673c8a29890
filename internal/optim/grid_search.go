// Package optim searches vehicle parameter grids for the configuration that
// maximizes an objective, typically the sustainable speed.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/safecar/internal/envelope"
)

var ErrNoCandidate = errors.New("optim: no parameter combination could be evaluated")

// Objective scores a vehicle; higher is better. An error excludes the
// candidate from the search.
type Objective func(v envelope.Vehicle) (float64, error)

// SustainableSpeed scores a vehicle by its maximum sustainable speed.
func SustainableSpeed(iterations int) Objective {
	return func(v envelope.Vehicle) (float64, error) {
		eng, err := envelope.New(v)
		if err != nil {
			return 0, err
		}
		return eng.MaxSustainableSpeed(iterations)
	}
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	probe := envelope.DefaultVehicle()
	for _, name := range params {
		if _, err := probe.WithParam(name, 1); err != nil {
			return nil, err
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Result is the best combination found and how many were scored.
type Result struct {
	Params    map[string]float64
	Score     float64
	Evaluated int
	Rejected  int
}

// Search scores every combination of the ranges applied on top of base.
func (g *GridSearch) Search(ctx context.Context, base envelope.Vehicle, objective Objective) (*Result, error) {
	res := &Result{Score: math.Inf(-1)}
	if err := g.searchRecursive(ctx, 0, base, map[string]float64{}, objective, res); err != nil {
		return nil, err
	}
	if res.Params == nil {
		return nil, ErrNoCandidate
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	vehicle envelope.Vehicle,
	current map[string]float64,
	objective Objective,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		score, err := objective(vehicle)
		if err != nil {
			res.Rejected++
			return nil
		}
		res.Evaluated++
		if score > res.Score {
			res.Score = score
			res.Params = maps.Clone(current)
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next, err := vehicle.WithParam(name, val)
		if err != nil {
			return err
		}
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, current, objective, res); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}
