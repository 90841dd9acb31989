package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/mirror"
	"github.com/jason0860907/tipomirror/pkg/models"
	"github.com/jason0860907/tipomirror/pkg/output"
	"github.com/jason0860907/tipomirror/pkg/remote"
)

// Pipeline coordinates the two-phase mirror run: a fully parallel
// counting phase, a hard join barrier, then a fully parallel mirroring
// phase gated on the counts already obtained.
type Pipeline struct {
	counter   remote.Counter
	executor  mirror.Executor
	formatter output.Formatter
	logger    logging.Logger
	operation *models.MirrorOperation

	// Run state
	phase   Phase
	phaseMu sync.Mutex

	// Remote counts keyed by locator identity. Fully populated before
	// the mirroring phase dispatches any work; read-only afterwards.
	counts map[string]int

	// Outcome collection
	outcomes   []*models.JobOutcome
	outcomesMu sync.Mutex
}

// New creates a pipeline for one run
func New(
	counter remote.Counter,
	executor mirror.Executor,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.MirrorOperation,
) *Pipeline {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Pipeline{
		counter:   counter,
		executor:  executor,
		formatter: formatter,
		logger:    logger,
		operation: operation,
		phase:     PhaseStart,
		counts:    make(map[string]int),
		outcomes:  make([]*models.JobOutcome, 0),
	}
}

// Phase returns the coordinator's current phase
func (p *Pipeline) Phase() Phase {
	p.phaseMu.Lock()
	defer p.phaseMu.Unlock()
	return p.phase
}

func (p *Pipeline) advance() Phase {
	p.phaseMu.Lock()
	defer p.phaseMu.Unlock()
	p.phase = p.phase.next()
	return p.phase
}

// Run executes the full pipeline over the locator set and returns the
// run report. Individual job failures never abort the run.
func (p *Pipeline) Run(ctx context.Context, locators []*models.Locator) *models.RunReport {
	startTime := time.Now()
	report := &models.RunReport{
		OperationID:  p.operation.ID,
		DownloadRoot: p.operation.DownloadRoot,
		StartTime:    startTime,
	}
	report.Stats.LocatorsProcessed = len(locators)

	p.logger.Info(ctx, "starting mirror run", logging.Fields{
		"operation_id":   p.operation.ID,
		"locators":       len(locators),
		"count_workers":  p.operation.CountWorkers,
		"mirror_workers": p.operation.MirrorWorkers,
	})

	if p.formatter != nil {
		p.formatter.Start(nil, len(locators), p.operation.MirrorWorkers)
	}

	p.advance() // CountingPhase
	p.runCountingPhase(ctx, locators, report)

	p.advance() // MirroringPhase
	p.runMirroringPhase(ctx, locators)

	p.advance() // Summarized
	p.summarize(report)

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if p.formatter != nil {
		p.formatter.Complete(report)
	}

	p.logger.Info(ctx, "mirror run complete", logging.Fields{
		"duration":  report.Duration.String(),
		"status":    string(report.Status),
		"succeeded": report.Stats.Succeeded,
		"failed":    report.Stats.Failed,
		"timed_out": report.Stats.TimedOut,
		"skipped":   report.Stats.Skipped,
	})

	p.advance() // End
	return report
}

// runCountingPhase dispatches one counter call per locator across a
// bounded worker pool and waits for all of them. This wait is the join
// barrier: no mirroring starts until every count is in.
func (p *Pipeline) runCountingPhase(ctx context.Context, locators []*models.Locator, report *models.RunReport) {
	p.logger.Info(ctx, "counting remote directories", logging.Fields{
		"locators": len(locators),
	})

	var wg sync.WaitGroup
	var countsMu sync.Mutex
	semaphore := make(chan struct{}, p.operation.CountWorkers)

	for _, locator := range locators {
		semaphore <- struct{}{}
		wg.Add(1)

		go func(loc *models.Locator) {
			defer wg.Done()
			defer func() { <-semaphore }()

			count := p.counter.Count(ctx, loc)

			countsMu.Lock()
			p.counts[loc.Raw] = count
			countsMu.Unlock()

			if p.formatter != nil {
				p.formatter.Update(output.JobUpdate{
					Type:          "count_result",
					Locator:       loc.Raw,
					ExpectedCount: count,
				})
			}
		}(locator)
	}

	wg.Wait()

	for _, locator := range locators {
		count := p.counts[locator.Raw]
		if count == models.UnknownCount {
			report.Stats.CountsUnknown++
			p.logger.Warn(ctx, "remote count unavailable", logging.Fields{
				"locator": locator.Raw,
			})
		} else {
			report.Stats.CountsKnown++
			p.logger.Info(ctx, "remote count obtained", logging.Fields{
				"locator":     locator.Raw,
				"directories": count,
			})
		}
	}
}

// runMirroringPhase dispatches one mirror job per locator with a known
// count. Locators without a count are recorded as skipped without
// dispatching any work.
func (p *Pipeline) runMirroringPhase(ctx context.Context, locators []*models.Locator) {
	p.logger.Info(ctx, "mirroring remote trees", nil)

	p.warnTargetCollisions(ctx, locators)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.operation.MirrorWorkers)
	workerSeq := 0

	for _, locator := range locators {
		count := p.counts[locator.Raw]
		if count == models.UnknownCount {
			p.logger.Warn(ctx, "skipping mirror, no remote count", logging.Fields{
				"locator": locator.Raw,
			})
			outcome := models.NewSkippedOutcome(locator)
			p.addOutcome(outcome)
			if p.formatter != nil {
				p.formatter.Update(output.JobUpdate{
					Type:    "job_skipped",
					Locator: locator.Raw,
					Status:  models.JobSkipped,
				})
			}
			continue
		}

		semaphore <- struct{}{}
		wg.Add(1)
		workerSeq++

		go func(loc *models.Locator, expected, workerID int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome := p.executor.Mirror(ctx, loc, expected)
			outcome.WorkerID = workerID
			p.addOutcome(outcome)

			if p.formatter != nil {
				updateType := "job_complete"
				if outcome.Status != models.JobSuccess {
					updateType = "job_error"
				}
				p.formatter.Update(output.JobUpdate{
					Type:          updateType,
					Locator:       loc.Raw,
					Status:        outcome.Status,
					ExpectedCount: outcome.ExpectedCount,
					LocalCount:    outcome.LocalCount,
				})
			}
		}(locator, count, workerSeq)
	}

	wg.Wait()
}

// warnTargetCollisions flags locators whose derived target names
// collide. Collisions are not de-duplicated; both jobs proceed and
// contend for the same directory.
func (p *Pipeline) warnTargetCollisions(ctx context.Context, locators []*models.Locator) {
	seen := make(map[string]string)
	for _, locator := range locators {
		name := locator.TargetName()
		if prior, ok := seen[name]; ok && prior != locator.Raw {
			p.logger.Warn(ctx, "target directory collision", logging.Fields{
				"target":   name,
				"locator":  locator.Raw,
				"conflict": prior,
			})
			continue
		}
		seen[name] = locator.Raw
	}
}

func (p *Pipeline) addOutcome(outcome *models.JobOutcome) {
	p.outcomesMu.Lock()
	p.outcomes = append(p.outcomes, outcome)
	p.outcomesMu.Unlock()
}

// summarize folds all outcomes into the report
func (p *Pipeline) summarize(report *models.RunReport) {
	p.outcomesMu.Lock()
	defer p.outcomesMu.Unlock()

	report.Outcomes = make([]*models.JobOutcome, len(p.outcomes))
	copy(report.Outcomes, p.outcomes)

	for _, outcome := range p.outcomes {
		report.Stats.Fold(outcome)
	}
	report.Status = report.Stats.DeriveStatus()
}
