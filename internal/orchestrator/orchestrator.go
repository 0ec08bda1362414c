// Package orchestrator runs configured scenarios end to end: execute
// the Monte-Carlo simulation, then persist the run record, per-step
// aggregates and raw points.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"tokensim/internal/config"
	"tokensim/internal/domain"
	"tokensim/internal/economy"
	"tokensim/internal/montecarlo"
	"tokensim/internal/observability"
	"tokensim/internal/runid"
	"tokensim/internal/storage"
)

// Options configures an Orchestrator.
type Options struct {
	// File is the parsed scenario file. Required.
	File *config.File

	// RunStore and AggregateStore receive each completed run. Required.
	RunStore       storage.RunStore
	AggregateStore storage.AggregateStore

	// PointStore, when set, receives the raw repetition x step points.
	PointStore storage.PointStore

	// OnProgress, when set, is called after every finished repetition.
	OnProgress func(montecarlo.Progress)

	// Verbose enables progress logging.
	Verbose bool
}

// RunSummary is one scenario's persisted outcome.
type RunSummary struct {
	Record *domain.RunRecord
	Result *montecarlo.Result
}

// Result summarizes one orchestrator run.
type Result struct {
	Runs      []RunSummary
	Cancelled bool
}

// Orchestrator executes and persists scenario runs.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.File == nil {
		return nil, fmt.Errorf("orchestrator: scenario file is required")
	}
	if opts.RunStore == nil || opts.AggregateStore == nil {
		return nil, fmt.Errorf("orchestrator: run and aggregate stores are required")
	}
	return &Orchestrator{opts: opts}, nil
}

// Run executes every scenario in the file sequentially. Each scenario
// gets its own simulator so variable sets never mix across tokens.
// Completed scenarios stay persisted when a later one fails.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	f := o.opts.File

	for i := range f.Scenarios {
		sc := f.Scenarios[i]

		summary, cancelled, err := o.runScenario(ctx, sc)
		if err != nil {
			return res, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		if cancelled {
			res.Cancelled = true
			return res, nil
		}
		res.Runs = append(res.Runs, *summary)
	}
	return res, nil
}

func (o *Orchestrator) runScenario(ctx context.Context, sc config.ScenarioConfig) (*RunSummary, bool, error) {
	f := o.opts.File

	sim, err := montecarlo.New(montecarlo.Options{
		Scenarios: []montecarlo.Scenario{{
			Name:  sc.Name,
			Build: func() (*economy.TokenEconomy, error) { return config.BuildEconomy(sc) },
		}},
		Seed:       f.Seed,
		Workers:    f.Workers,
		OnProgress: o.opts.OnProgress,
		Verbose:    o.opts.Verbose,
	})
	if err != nil {
		return nil, false, err
	}

	startedAt := time.Now().UTC()
	simRes, err := sim.Execute(ctx, f.Iterations, f.Repetitions)
	if err != nil {
		return nil, false, err
	}
	if simRes.Cancelled {
		o.log("scenario %q cancelled after %d repetitions", sc.Name, simRes.Successful)
		return nil, true, nil
	}
	finishedAt := time.Now().UTC()

	scenarioID := runid.ScenarioID(sc.Name, sc.Token, f.Iterations, f.Repetitions, f.Seed)
	record := &domain.RunRecord{
		RunID:       runid.RunID(scenarioID, startedAt.UnixMilli()),
		ScenarioID:  scenarioID,
		Scenario:    sc.Name,
		Token:       sc.Token,
		UnitOfTime:  domain.UnitOfTime(sc.Unit),
		Iterations:  f.Iterations,
		Repetitions: f.Repetitions,
		Failures:    simRes.Failed,
		Seed:        f.Seed,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}
	if record.UnitOfTime == "" {
		record.UnitOfTime = domain.UnitDay
	}

	if err := o.persist(ctx, record, sim); err != nil {
		return nil, false, err
	}

	o.log("scenario %q run %s: %d successful, %d failed repetitions",
		sc.Name, record.RunID, simRes.Successful, simRes.Failed)
	return &RunSummary{Record: record, Result: simRes}, false, nil
}

func (o *Orchestrator) persist(ctx context.Context, record *domain.RunRecord, sim *montecarlo.Simulator) error {
	start := time.Now()
	err := o.opts.RunStore.Insert(ctx, record)
	observability.RecordDBQuery("postgres", "insert_run", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	names, err := sim.Variables()
	if err != nil {
		return err
	}

	var aggregates []*domain.VariableStats
	for _, name := range names {
		stats, err := sim.Stats(name)
		if err != nil {
			return err
		}
		for i := range stats {
			stats[i].RunID = record.RunID
			aggregates = append(aggregates, &stats[i])
		}
	}

	start = time.Now()
	err = o.opts.AggregateStore.InsertBulk(ctx, aggregates)
	observability.RecordDBQuery("postgres", "insert_aggregates", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert aggregates: %w", err)
	}
	observability.DefaultMetrics.AggregatesStored.Add(float64(len(aggregates)))

	if o.opts.PointStore == nil {
		return nil
	}

	var points []*domain.Point
	for _, name := range names {
		rows, err := sim.Timeseries(name)
		if err != nil {
			return err
		}
		// Row order follows repetition order; failed repetitions leave
		// no row, so indices are dense.
		for rep, row := range rows {
			for step, value := range row {
				points = append(points, &domain.Point{
					RunID:      record.RunID,
					Variable:   name,
					Repetition: rep,
					Step:       step,
					Value:      value,
				})
			}
		}
	}

	start = time.Now()
	err = o.opts.PointStore.InsertBulk(ctx, points)
	observability.RecordDBQuery("clickhouse", "insert_points", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert points: %w", err)
	}
	observability.DefaultMetrics.PointsStored.Add(float64(len(points)))
	return nil
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.opts.Verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
