package pipeline

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason0860907/tipomirror/pkg/models"
	"github.com/jason0860907/tipomirror/pkg/output"
)

// ============================================================================
// Fakes
// ============================================================================

// fakeCounter returns canned counts keyed by raw locator and records
// how many counting calls are still in flight.
type fakeCounter struct {
	counts   map[string]int
	delay    time.Duration
	inFlight int32
	calls    int32
}

func (c *fakeCounter) Count(ctx context.Context, locator *models.Locator) int {
	atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	atomic.AddInt32(&c.calls, 1)

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if count, ok := c.counts[locator.Raw]; ok {
		return count
	}
	return models.UnknownCount
}

// fakeExecutor returns canned outcomes and records which locators were
// dispatched. If barrier is non-nil it is consulted at dispatch time.
type fakeExecutor struct {
	outcomes map[string]*models.JobOutcome
	barrier  func()

	mu         sync.Mutex
	dispatched []string
}

func (e *fakeExecutor) Mirror(ctx context.Context, locator *models.Locator, expectedCount int) *models.JobOutcome {
	if e.barrier != nil {
		e.barrier()
	}

	e.mu.Lock()
	e.dispatched = append(e.dispatched, locator.Raw)
	e.mu.Unlock()

	if outcome, ok := e.outcomes[locator.Raw]; ok {
		outcome.ExpectedCount = expectedCount
		return outcome
	}
	return &models.JobOutcome{
		Locator:       locator,
		Status:        models.JobSuccess,
		ExpectedCount: expectedCount,
		LocalCount:    expectedCount,
		CountVerified: true,
	}
}

func (e *fakeExecutor) dispatchedLocators() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.dispatched))
	copy(out, e.dispatched)
	return out
}

// recordingFormatter captures every update type it receives
type recordingFormatter struct {
	output.Formatter
	mu      sync.Mutex
	updates []output.JobUpdate
}

func newRecordingFormatter() *recordingFormatter {
	return &recordingFormatter{Formatter: output.NewHumanFormatter()}
}

func (f *recordingFormatter) Start(writer io.Writer, totalJobs int, maxWorkers int) error {
	return nil
}

func (f *recordingFormatter) Update(update output.JobUpdate) error {
	f.mu.Lock()
	f.updates = append(f.updates, update)
	f.mu.Unlock()
	return nil
}

func (f *recordingFormatter) Complete(report *models.RunReport) error { return nil }

func (f *recordingFormatter) countType(updateType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.updates {
		if u.Type == updateType {
			n++
		}
	}
	return n
}

func testOperation() *models.MirrorOperation {
	return &models.MirrorOperation{
		ID:              "test-op",
		DownloadRoot:    "/tmp/mirror",
		CountWorkers:    4,
		MirrorWorkers:   4,
		CountTimeout:    time.Minute,
		MirrorTimeout:   time.Minute,
		Counter:         models.CounterLFTP,
		LFTPBinary:      "lftp",
		PgetConnections: 4,
	}
}

func locatorSet(raws ...string) []*models.Locator {
	locators := make([]*models.Locator, 0, len(raws))
	for _, raw := range raws {
		locator, err := models.ParseLocator(raw)
		if err != nil {
			panic(err)
		}
		locators = append(locators, locator)
	}
	return locators
}

// ============================================================================
// Phase ordering
// ============================================================================

func TestRunTraversesAllPhases(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{}}
	executor := &fakeExecutor{}
	p := New(counter, executor, nil, nil, testOperation())

	if p.Phase() != PhaseStart {
		t.Errorf("initial phase = %s, want %s", p.Phase(), PhaseStart)
	}

	p.Run(context.Background(), nil)

	if p.Phase() != PhaseEnd {
		t.Errorf("final phase = %s, want %s", p.Phase(), PhaseEnd)
	}
}

func TestPhaseNext(t *testing.T) {
	order := []Phase{PhaseStart, PhaseCounting, PhaseMirroring, PhaseSummarize, PhaseEnd}
	for i := 0; i < len(order)-1; i++ {
		if got := order[i].next(); got != order[i+1] {
			t.Errorf("%s.next() = %s, want %s", order[i], got, order[i+1])
		}
	}
	if got := PhaseEnd.next(); got != PhaseEnd {
		t.Errorf("PhaseEnd.next() = %s, want %s", got, PhaseEnd)
	}
}

// TestNoMirrorBeforeAllCounts verifies the join barrier: every counting
// call must have completed before any mirror job starts.
func TestNoMirrorBeforeAllCounts(t *testing.T) {
	locators := locatorSet(
		"ftps://h/a/", "ftps://h/b/", "ftps://h/c/",
		"ftps://h/d/", "ftps://h/e/", "ftps://h/f/",
	)
	counts := make(map[string]int)
	for _, loc := range locators {
		counts[loc.Raw] = 1
	}

	counter := &fakeCounter{counts: counts, delay: 10 * time.Millisecond}

	var barrierViolations int32
	executor := &fakeExecutor{}
	executor.barrier = func() {
		if atomic.LoadInt32(&counter.inFlight) != 0 {
			atomic.AddInt32(&barrierViolations, 1)
		}
		if atomic.LoadInt32(&counter.calls) != int32(len(locators)) {
			atomic.AddInt32(&barrierViolations, 1)
		}
	}

	op := testOperation()
	op.CountWorkers = 2
	p := New(counter, executor, nil, nil, op)
	p.Run(context.Background(), locators)

	if violations := atomic.LoadInt32(&barrierViolations); violations != 0 {
		t.Errorf("mirror work observed before counting finished (%d violations)", violations)
	}
	if got := len(executor.dispatchedLocators()); got != len(locators) {
		t.Errorf("dispatched = %d, want %d", got, len(locators))
	}
}

// ============================================================================
// Skip semantics
// ============================================================================

func TestUnknownCountSkipsWithoutDispatch(t *testing.T) {
	locators := locatorSet("ftps://host/S220/data/2025/", "ftps://host/S220/data/2026/")
	counter := &fakeCounter{counts: map[string]int{
		"ftps://host/S220/data/2025/": 3,
		// 2026 deliberately absent: enumeration failed
	}}
	executor := &fakeExecutor{}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), locators)

	dispatched := executor.dispatchedLocators()
	if len(dispatched) != 1 || dispatched[0] != "ftps://host/S220/data/2025/" {
		t.Fatalf("dispatched = %v, want only the counted locator", dispatched)
	}

	if report.Stats.LocatorsProcessed != 2 {
		t.Errorf("LocatorsProcessed = %d, want 2", report.Stats.LocatorsProcessed)
	}
	if report.Stats.CountsKnown != 1 || report.Stats.CountsUnknown != 1 {
		t.Errorf("counts known/unknown = %d/%d, want 1/1",
			report.Stats.CountsKnown, report.Stats.CountsUnknown)
	}
	if report.Stats.Succeeded != 1 || report.Stats.Skipped != 1 {
		t.Errorf("succeeded/skipped = %d/%d, want 1/1",
			report.Stats.Succeeded, report.Stats.Skipped)
	}
	if report.Status != models.RunPartial {
		t.Errorf("status = %s, want %s", report.Status, models.RunPartial)
	}

	var skipped *models.JobOutcome
	for _, outcome := range report.Outcomes {
		if outcome.Status == models.JobSkipped {
			skipped = outcome
		}
	}
	if skipped == nil {
		t.Fatal("no skipped outcome recorded")
	}
	if skipped.Failure != models.FailureSkippedNoCount {
		t.Errorf("skipped failure = %s, want %s", skipped.Failure, models.FailureSkippedNoCount)
	}
	if skipped.ExpectedCount != models.UnknownCount {
		t.Errorf("skipped expected count = %d, want %d", skipped.ExpectedCount, models.UnknownCount)
	}
}

// ============================================================================
// Outcome folding
// ============================================================================

func TestFailedJobRecordedWithDiagnostics(t *testing.T) {
	locators := locatorSet("ftps://h/broken/")
	counter := &fakeCounter{counts: map[string]int{"ftps://h/broken/": 5}}
	executor := &fakeExecutor{outcomes: map[string]*models.JobOutcome{
		"ftps://h/broken/": {
			Locator: locators[0],
			Status:  models.JobFailed,
			Failure: models.FailureMirror,
			Output:  "mirror: Access failed: 550 /broken",
		},
	}}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), locators)

	if report.Stats.Failed != 1 || report.Stats.Succeeded != 0 {
		t.Errorf("failed/succeeded = %d/%d, want 1/0",
			report.Stats.Failed, report.Stats.Succeeded)
	}
	if report.Status != models.RunFailed {
		t.Errorf("status = %s, want %s", report.Status, models.RunFailed)
	}

	outcome := report.Outcomes[0]
	if outcome.ExpectedCount != 5 {
		t.Errorf("ExpectedCount = %d, want 5", outcome.ExpectedCount)
	}
	if outcome.LocalCount != 0 {
		t.Errorf("LocalCount = %d, want 0", outcome.LocalCount)
	}
	if outcome.Output == "" {
		t.Error("failed outcome must carry diagnostic output")
	}
}

func TestTimeoutCountsAsFailed(t *testing.T) {
	locators := locatorSet("ftps://h/slow/", "ftps://h/ok/")
	counter := &fakeCounter{counts: map[string]int{
		"ftps://h/slow/": 2,
		"ftps://h/ok/":   1,
	}}
	executor := &fakeExecutor{outcomes: map[string]*models.JobOutcome{
		"ftps://h/slow/": {
			Locator: locators[0],
			Status:  models.JobTimeout,
			Failure: models.FailureMirrorTimeout,
			Output:  "no stderr captured before timeout",
		},
	}}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), locators)

	if report.Stats.TimedOut != 1 {
		t.Errorf("TimedOut = %d, want 1", report.Stats.TimedOut)
	}
	if report.Stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1 (timeout counts as failed)", report.Stats.Failed)
	}
	if report.Status != models.RunPartial {
		t.Errorf("status = %s, want %s", report.Status, models.RunPartial)
	}
}

func TestCountMismatchStaysSuccessful(t *testing.T) {
	locators := locatorSet("ftps://h/tree/")
	counter := &fakeCounter{counts: map[string]int{"ftps://h/tree/": 10}}
	executor := &fakeExecutor{outcomes: map[string]*models.JobOutcome{
		"ftps://h/tree/": {
			Locator:       locators[0],
			Status:        models.JobSuccess,
			LocalCount:    8,
			CountVerified: false,
		},
	}}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), locators)

	if report.Stats.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", report.Stats.Succeeded)
	}
	if report.Stats.CountsMismatched != 1 {
		t.Errorf("CountsMismatched = %d, want 1", report.Stats.CountsMismatched)
	}
	if report.Status != models.RunSuccess {
		t.Errorf("status = %s, want %s (mismatch is not a failure)", report.Status, models.RunSuccess)
	}
}

func TestEmptyLocatorSet(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{}}
	executor := &fakeExecutor{}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), nil)

	if report.Stats.LocatorsProcessed != 0 {
		t.Errorf("LocatorsProcessed = %d, want 0", report.Stats.LocatorsProcessed)
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0", len(report.Outcomes))
	}
	if report.Status != models.RunSuccess {
		t.Errorf("status = %s, want %s", report.Status, models.RunSuccess)
	}
	if report.Status.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", report.Status.ExitCode())
	}
	if got := len(executor.dispatchedLocators()); got != 0 {
		t.Errorf("dispatched = %d, want 0", got)
	}
}

func TestOneOutcomePerLocator(t *testing.T) {
	locators := locatorSet(
		"ftps://h/a/", "ftps://h/b/", "ftps://h/c/", "ftps://h/d/",
	)
	counter := &fakeCounter{counts: map[string]int{
		"ftps://h/a/": 1,
		"ftps://h/b/": 2,
		// c and d unknown
	}}
	executor := &fakeExecutor{}

	p := New(counter, executor, nil, nil, testOperation())
	report := p.Run(context.Background(), locators)

	if len(report.Outcomes) != len(locators) {
		t.Fatalf("outcomes = %d, want %d", len(report.Outcomes), len(locators))
	}
	seen := make(map[string]bool)
	for _, outcome := range report.Outcomes {
		if seen[outcome.Locator.Raw] {
			t.Errorf("duplicate outcome for %s", outcome.Locator.Raw)
		}
		seen[outcome.Locator.Raw] = true
	}
}

// ============================================================================
// Formatter notifications
// ============================================================================

func TestFormatterReceivesUpdates(t *testing.T) {
	locators := locatorSet("ftps://h/a/", "ftps://h/b/", "ftps://h/c/")
	counter := &fakeCounter{counts: map[string]int{
		"ftps://h/a/": 1,
		"ftps://h/b/": 2,
	}}
	executor := &fakeExecutor{outcomes: map[string]*models.JobOutcome{
		"ftps://h/b/": {
			Locator: locators[1],
			Status:  models.JobFailed,
			Failure: models.FailureMirror,
			Output:  "exit 1",
		},
	}}
	formatter := newRecordingFormatter()

	p := New(counter, executor, formatter, nil, testOperation())
	p.Run(context.Background(), locators)

	if got := formatter.countType("count_result"); got != 3 {
		t.Errorf("count_result updates = %d, want 3", got)
	}
	if got := formatter.countType("job_complete"); got != 1 {
		t.Errorf("job_complete updates = %d, want 1", got)
	}
	if got := formatter.countType("job_error"); got != 1 {
		t.Errorf("job_error updates = %d, want 1", got)
	}
	if got := formatter.countType("job_skipped"); got != 1 {
		t.Errorf("job_skipped updates = %d, want 1", got)
	}
}
