// Package montecarlo drives repeated runs of configured token
// economies and aggregates the per-repetition time series into
// queryable repetition x step matrices.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"tokensim/internal/domain"
	"tokensim/internal/economy"
	"tokensim/internal/observability"
	"tokensim/internal/sampler"
	"tokensim/internal/stats"
)

// Simulator errors
var (
	// ErrInvalidParameter indicates non-positive iterations or
	// repetitions. Raised before any work starts.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAllRepetitionsFailed indicates every repetition aborted.
	ErrAllRepetitionsFailed = errors.New("all repetitions failed")

	// ErrUnknownVariable indicates a queried variable no repetition
	// ever produced.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrNotExecuted indicates a query before any Execute call.
	ErrNotExecuted = errors.New("simulator has not executed")
)

// Scenario is one fully configured economy under test. Build is
// called once per worker so parallel repetitions never share mutable
// state.
type Scenario struct {
	Name  string
	Build func() (*economy.TokenEconomy, error)
}

// Progress describes one finished repetition.
type Progress struct {
	Scenario   string `json:"scenario"`
	Repetition int    `json:"repetition"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
}

// Options configures a Simulator.
type Options struct {
	// Scenarios to run. Required, names must be unique.
	Scenarios []Scenario

	// Seed is the base seed; repetition r draws from the sub-seed
	// derived by sampler.DeriveSeed(Seed, r).
	Seed int64

	// Workers bounds repetition parallelism per scenario. Defaults
	// to 1 (sequential).
	Workers int

	// OnProgress, when set, is called after every finished repetition.
	OnProgress func(Progress)

	// Verbose enables progress logging.
	Verbose bool
}

// Result summarizes one Execute call.
type Result struct {
	Iterations  int
	Repetitions int
	Successful  int
	Failed      int
	Cancelled   bool
	Elapsed     time.Duration

	// Errors collects per-repetition failure messages.
	Errors []string
}

// Simulator is the Monte-Carlo driver. One Execute call populates the
// aggregate the query methods read; a subsequent call replaces it.
type Simulator struct {
	opts Options

	mu         sync.RWMutex
	data       map[string][][]float64
	iterations int
	executed   bool
}

// repOutcome is one repetition's harvested series or failure.
type repOutcome struct {
	scenario   int
	repetition int
	series     map[string][]float64
	err        error
}

// New creates a Simulator.
func New(opts Options) (*Simulator, error) {
	if len(opts.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios", economy.ErrConfiguration)
	}
	seen := make(map[string]bool, len(opts.Scenarios))
	for _, sc := range opts.Scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("%w: scenario without a name", economy.ErrConfiguration)
		}
		if sc.Build == nil {
			return nil, fmt.Errorf("%w: scenario %q has no build function", economy.ErrConfiguration, sc.Name)
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("%w: duplicate scenario name %q", economy.ErrConfiguration, sc.Name)
		}
		seen[sc.Name] = true
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Simulator{opts: opts}, nil
}

// Execute runs every scenario for iterations steps, repetitions times.
// Repetitions run independently: fresh reset, fresh sub-seeded draws.
// Numerical failures abort only their repetition; cancellation stops
// between repetitions and keeps completed results.
func (s *Simulator) Execute(ctx context.Context, iterations, repetitions int) (*Result, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations %d", ErrInvalidParameter, iterations)
	}
	if repetitions <= 0 {
		return nil, fmt.Errorf("%w: repetitions %d", ErrInvalidParameter, repetitions)
	}

	// Validate every scenario's wiring before any work starts.
	for _, sc := range s.opts.Scenarios {
		eco, err := sc.Build()
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		if err := eco.Validate(iterations); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	start := time.Now()
	observability.DefaultMetrics.ActiveRuns.Inc()
	defer observability.DefaultMetrics.ActiveRuns.Dec()

	res := &Result{
		Iterations:  iterations,
		Repetitions: repetitions,
	}
	data := make(map[string][][]float64)

	for si, sc := range s.opts.Scenarios {
		scStart := time.Now()
		outcomes, cancelled, err := s.runScenario(ctx, si, iterations, repetitions)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		observability.RecordRunDuration(sc.Name, time.Since(scStart).Seconds())

		// Merge in repetition order so results are deterministic no
		// matter how workers were scheduled.
		sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].repetition < outcomes[j].repetition })
		for _, out := range outcomes {
			if out.err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s repetition %d: %v", sc.Name, out.repetition, out.err))
				observability.RecordRepetition(sc.Name, true)
				continue
			}
			if msg := checkShape(out.series, iterations, data); msg != "" {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s repetition %d: %s", sc.Name, out.repetition, msg))
				observability.RecordRepetition(sc.Name, true)
				continue
			}
			for name, series := range out.series {
				data[name] = append(data[name], series)
			}
			res.Successful++
			observability.RecordRepetition(sc.Name, false)
		}
		if cancelled {
			res.Cancelled = true
			break
		}
	}

	res.Elapsed = time.Since(start)

	if !res.Cancelled && res.Successful == 0 && res.Failed > 0 {
		return nil, fmt.Errorf("%w: %d of %d repetitions aborted",
			ErrAllRepetitionsFailed, res.Failed, repetitions*len(s.opts.Scenarios))
	}

	s.mu.Lock()
	s.data = data
	s.iterations = iterations
	s.executed = true
	s.mu.Unlock()

	s.log("executed %d scenario(s): %d successful, %d failed repetitions in %s",
		len(s.opts.Scenarios), res.Successful, res.Failed, res.Elapsed)
	return res, nil
}

// runScenario dispatches repetitions to workers and collects outcomes.
// Each worker owns its own economy instance; cancellation is honored
// between repetitions, never mid-step.
func (s *Simulator) runScenario(ctx context.Context, si, iterations, repetitions int) ([]repOutcome, bool, error) {
	sc := s.opts.Scenarios[si]

	workers := s.opts.Workers
	if workers > repetitions {
		workers = repetitions
	}

	economies := make([]*economy.TokenEconomy, workers)
	for w := range economies {
		eco, err := sc.Build()
		if err != nil {
			return nil, false, err
		}
		economies[w] = eco
	}

	jobs := make(chan int, repetitions)
	for rep := 0; rep < repetitions; rep++ {
		jobs <- rep
	}
	close(jobs)

	results := make(chan repOutcome, repetitions)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		eco := economies[w]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rep := range jobs {
				if ctx.Err() != nil {
					return
				}
				out := s.runRepetition(eco, si, rep, iterations)
				results <- out
				if out.err != nil && !errors.Is(out.err, economy.ErrNumerical) {
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []repOutcome
	var fatal error
	completed, failed := 0, 0
	for out := range results {
		if out.err != nil && !errors.Is(out.err, economy.ErrNumerical) {
			fatal = out.err
			continue
		}
		outcomes = append(outcomes, out)
		if out.err != nil {
			failed++
		} else {
			completed++
		}
		if s.opts.OnProgress != nil {
			s.opts.OnProgress(Progress{
				Scenario:   sc.Name,
				Repetition: out.repetition,
				Completed:  completed,
				Failed:     failed,
				Total:      repetitions,
			})
		}
	}
	if fatal != nil {
		return nil, false, fatal
	}
	return outcomes, ctx.Err() != nil, nil
}

// runRepetition resets eco and steps it to completion, harvesting the
// full time series.
func (s *Simulator) runRepetition(eco *economy.TokenEconomy, si, rep, iterations int) repOutcome {
	out := repOutcome{scenario: si, repetition: rep}

	rnd := sampler.New(sampler.DeriveSeed(s.opts.Seed, rep))
	eco.Reset(iterations, rnd)

	for i := 0; i < iterations; i++ {
		if err := eco.Step(); err != nil {
			out.err = err
			observability.RecordSteps(i)
			return out
		}
	}
	observability.RecordSteps(iterations)
	observability.RecordClamps(eco.ClampEvents())

	hist := eco.History()
	out.series = make(map[string][]float64)
	for _, name := range hist.Variables() {
		out.series[name] = hist.Series(name)
	}
	return out
}

// checkShape verifies a repetition's series match the expected length
// and, once the aggregate has columns, the established variable set.
// Returns a defect message or "".
func checkShape(series map[string][]float64, iterations int, agg map[string][][]float64) string {
	for name, col := range series {
		if len(col) != iterations {
			return fmt.Sprintf("variable %q has %d steps, want %d", name, len(col), iterations)
		}
	}
	if len(agg) > 0 && len(series) != len(agg) {
		return fmt.Sprintf("repetition produced %d variables, aggregate has %d", len(series), len(agg))
	}
	for name := range agg {
		if _, ok := series[name]; !ok {
			return fmt.Sprintf("repetition missing variable %q", name)
		}
	}
	return ""
}

// Timeseries returns the repetition x step matrix for one variable
// across all successful repetitions.
func (s *Simulator) Timeseries(name string) ([][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.executed {
		return nil, ErrNotExecuted
	}
	rows, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out, nil
}

// Data returns the full aggregate: every variable's repetition x step
// matrix.
func (s *Simulator) Data() (map[string][][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.executed {
		return nil, ErrNotExecuted
	}
	out := make(map[string][][]float64, len(s.data))
	for name, rows := range s.data {
		cp := make([][]float64, len(rows))
		for i, row := range rows {
			cp[i] = make([]float64, len(row))
			copy(cp[i], row)
		}
		out[name] = cp
	}
	return out, nil
}

// Variables returns all aggregated variable names, sorted.
func (s *Simulator) Variables() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.executed {
		return nil, ErrNotExecuted
	}
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Stats computes per-step summary statistics for one variable across
// all successful repetitions.
func (s *Simulator) Stats(name string) ([]domain.VariableStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.executed {
		return nil, ErrNotExecuted
	}
	rows, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}

	out := make([]domain.VariableStats, s.iterations)
	col := make([]float64, len(rows))
	for step := 0; step < s.iterations; step++ {
		for r, row := range rows {
			col[r] = row[step]
		}
		sum := stats.Summarize(col)
		out[step] = domain.VariableStats{
			Variable: name,
			Step:     step,
			Mean:     sum.Mean,
			Median:   sum.Median,
			Stddev:   sum.Stddev,
			P10:      sum.P10,
			P90:      sum.P90,
			Min:      sum.Min,
			Max:      sum.Max,
		}
	}
	return out, nil
}

func (s *Simulator) log(format string, args ...any) {
	if s.opts.Verbose {
		log.Printf("[montecarlo] "+format, args...)
	}
}
