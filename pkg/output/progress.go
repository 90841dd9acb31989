package output

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// ProgressFormatter renders a progress bar across the mirroring phase
// and falls back to the human summary at completion. Counting-phase
// updates are not drawn; they arrive before the bar total is useful.
type ProgressFormatter struct {
	bar     *pb.ProgressBar
	human   *HumanFormatter
	writer  io.Writer
	mu      sync.Mutex
	started bool
}

// NewProgressFormatter creates a progress-bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{human: NewHumanFormatter()}
}

// Start initializes the progress bar sized to the job count
func (f *ProgressFormatter) Start(writer io.Writer, totalJobs int, maxWorkers int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer

	if totalJobs > 0 {
		f.bar = pb.New(totalJobs)
		f.bar.SetWriter(writer)
		f.bar.Set(pb.Bytes, false)
		f.bar.Start()
		f.started = true
	}
	return nil
}

// Update advances the bar as jobs reach a terminal state
func (f *ProgressFormatter) Update(update JobUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		return nil
	}

	switch update.Type {
	case "job_complete", "job_error", "job_skipped":
		f.bar.Increment()
	}
	return nil
}

// Complete finishes the bar and prints the human summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	if f.started {
		f.bar.Finish()
		f.started = false
	}
	f.mu.Unlock()

	f.human.writer = f.writer
	return f.human.Complete(report)
}

// Error reports an error without disturbing the bar state
func (f *ProgressFormatter) Error(err error) error {
	return f.human.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
