package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-ocarina/analysis"
	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/irsynth"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

type optimizationConfig struct {
	reference        []float64
	baseParams       *preset.Preset
	steps            []ocarina.Step
	defs             []knobDef
	initCandidate    candidate
	groups           map[string]bool
	sampleRate       int
	controlRate      float64
	blockSize        int
	tail             float64
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
	logger           *slog.Logger

	// onImprove runs on the worker that found the new best, outside the
	// search lock.
	onImprove func(best candidate, eval optimizationEval, evals int, top []topCandidate)
}

type optimizationEval struct {
	metrics analysis.Metrics
	params  *preset.Preset
	roomL   []float32
	roomR   []float32
}

type optimizationResult struct {
	best    candidate
	eval    optimizationEval
	top     []topCandidate
	evals   int
	elapsed float64
}

// evaluator renders and scores candidates. Convolver state is per render,
// so each worker owns one.
type evaluator struct {
	cfg       *optimizationConfig
	fixedRoom *ocarina.RoomConvolver
}

func newEvaluator(cfg *optimizationConfig) (*evaluator, error) {
	ev := &evaluator{cfg: cfg}
	if !cfg.groups["room"] {
		room, err := fitcommon.LoadRoom(cfg.baseParams, "", cfg.sampleRate)
		if err != nil {
			return nil, err
		}
		ev.fixedRoom = room
	}
	return ev, nil
}

func (ev *evaluator) evaluate(c candidate) (optimizationEval, error) {
	cfg := ev.cfg
	params, roomCfg := applyCandidate(cfg.baseParams, cfg.sampleRate, cfg.defs, c)
	out := optimizationEval{params: params}

	room := ev.fixedRoom
	if cfg.groups["room"] {
		l, r, err := irsynth.GenerateRoom(roomCfg)
		if err != nil {
			return optimizationEval{}, fmt.Errorf("room IR: %w", err)
		}
		room = ocarina.NewRoomConvolver(cfg.sampleRate)
		if err := room.SetIR(l, r); err != nil {
			return optimizationEval{}, err
		}
		out.roomL, out.roomR = l, r
	}
	if room != nil {
		room.Reset()
		room.Wet = float32(params.RoomWetMix)
		room.Dry = float32(params.RoomDryMix)
	}

	samples, channels := fitcommon.Render(params, cfg.steps, room, fitcommon.RenderOptions{
		SampleRate:  cfg.sampleRate,
		ControlRate: cfg.controlRate,
		BlockSize:   cfg.blockSize,
		Tail:        cfg.tail,
		Logger:      cfg.logger,
	})
	mono := fitcommon.Downmix(samples, channels)
	if len(mono) == 0 {
		return optimizationEval{}, errors.New("empty render")
	}
	out.metrics = analysis.Compare(cfg.reference, mono, cfg.sampleRate)
	return out, nil
}

// search is the state shared by all workers of one optimization run.
type search struct {
	cfg      *optimizationConfig
	variant  string
	start    time.Time
	deadline time.Time

	evals  atomic.Int64
	rounds atomic.Int64

	mu       sync.Mutex
	best     candidate
	bestEval optimizationEval
	board    leaderboard
}

func newSearch(cfg *optimizationConfig) *search {
	now := time.Now()
	return &search{
		cfg:      cfg,
		variant:  strings.ToLower(cfg.mayflyVariant),
		start:    now,
		deadline: now.Add(time.Duration(cfg.timeBudget * float64(time.Second))),
		board:    leaderboard{size: cfg.topK},
	}
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	s := newSearch(cfg)

	first, err := newEvaluator(cfg)
	if err != nil {
		return nil, err
	}
	s.best = cloneCandidate(cfg.initCandidate)
	s.bestEval, err = first.evaluate(s.best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	s.evals.Store(1)
	s.board.offer(1, s.bestEval.metrics, knobMap(cfg.defs, s.best))
	cfg.logger.Info("start", "score", s.bestEval.metrics.Score,
		"similarity", s.bestEval.metrics.Similarity, "dominant", s.bestEval.metrics.Dominant)

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(id)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return &optimizationResult{
		best:    cloneCandidate(s.best),
		eval:    s.bestEval,
		top:     s.board.snapshot(),
		evals:   int(s.evals.Load()),
		elapsed: time.Since(s.start).Seconds(),
	}, nil
}

// work runs short mayfly rounds until the evaluation or time budget is
// spent. Each round restarts the swarm from a fresh seed.
func (s *search) work(id int) {
	cfg := s.cfg
	ev, err := newEvaluator(cfg)
	if err != nil {
		cfg.logger.Error("worker setup failed", "worker", id, "err", err)
		return
	}
	for !s.expired() {
		remaining := cfg.maxEvals - int(s.evals.Load())
		if remaining <= 0 {
			return
		}
		round := s.rounds.Add(1)
		mcfg, err := newMayflyConfig(s.variant, cfg.mayflyPop, len(cfg.defs),
			roundIterations(min(cfg.mayflyRoundEvals, remaining), cfg.mayflyPop))
		if err != nil {
			cfg.logger.Error("mayfly setup failed", "round", round, "err", err)
			return
		}
		mcfg.Rand = rand.New(rand.NewSource(cfg.seed + round*7919))
		mcfg.ObjectiveFunc = s.objective(ev)
		if _, err := runMayfly(mcfg); err != nil {
			cfg.logger.Error("mayfly round failed", "round", round, "err", err)
		}
	}
}

func (s *search) expired() bool { return time.Now().After(s.deadline) }

// objective maps a normalized mayfly position to a score. Once the budget is
// gone it returns a score worse than the best so the swarm winds down
// without rendering.
func (s *search) objective(ev *evaluator) func([]float64) float64 {
	return func(pos []float64) float64 {
		if s.expired() {
			return s.bestScore() + 1
		}
		n, ok := s.reserve()
		if !ok {
			return s.bestScore() + 1
		}
		cand := fromNormalized(pos, s.cfg.defs)
		res, err := ev.evaluate(cand)
		if err != nil {
			s.cfg.logger.Debug("evaluation failed", "eval", n, "err", err)
			return s.bestScore() + 0.8
		}
		s.accept(n, cand, res)
		return res.metrics.Score
	}
}

// reserve claims the next evaluation number, failing once maxEvals is hit.
func (s *search) reserve() (int64, bool) {
	for {
		cur := s.evals.Load()
		if cur >= int64(s.cfg.maxEvals) {
			return 0, false
		}
		if s.evals.CompareAndSwap(cur, cur+1) {
			return cur + 1, true
		}
	}
}

func (s *search) bestScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestEval.metrics.Score
}

func (s *search) accept(n int64, cand candidate, res optimizationEval) {
	cfg := s.cfg
	s.mu.Lock()
	s.board.offer(int(n), res.metrics, knobMap(cfg.defs, cand))
	improved := res.metrics.Score < s.bestEval.metrics.Score
	var top []topCandidate
	if improved {
		s.best = cloneCandidate(cand)
		s.bestEval = res
		top = s.board.snapshot()
	}
	bestScore := s.bestEval.metrics.Score
	s.mu.Unlock()

	if improved {
		cfg.logger.Info("improved", "eval", n, "score", res.metrics.Score,
			"similarity", res.metrics.Similarity, "dominant", res.metrics.Dominant)
		if cfg.onImprove != nil {
			cfg.onImprove(cand, res, int(s.evals.Load()), top)
		}
	}
	if cfg.reportEvery > 0 && n%int64(cfg.reportEvery) == 0 {
		cfg.logger.Info("progress", "eval", n, "max", cfg.maxEvals,
			"elapsed", time.Since(s.start).Round(time.Millisecond), "best", bestScore)
	}
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}
