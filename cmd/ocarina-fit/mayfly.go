package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cwbudde/mayfly"
)

var mayflyVariants = map[string]func() *mayfly.Config{
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

func mayflyVariantNames() string {
	names := make([]string, 0, len(mayflyVariants))
	for k := range mayflyVariants {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// newMayflyConfig sets up a swarm searching the unit hypercube; knob
// scaling happens in fromNormalized.
func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	ctor, ok := mayflyVariants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported variant %q (have %s)", variant, mayflyVariantNames())
	}
	cfg := ctor()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0
	cfg.UpperBound = 1
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

// roundIterations converts an evaluation budget into swarm iterations. Each
// iteration scores the male and the female population.
func roundIterations(budget, pop int) int {
	return max(1, budget/(2*max(1, pop)))
}

// runMayfly turns a panic inside the optimizer into an error so one bad
// round does not take the worker down.
func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
