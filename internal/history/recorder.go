package history

import (
	"context"

	"github.com/harrison/grader/internal/models"
)

// Recorder streams verdicts of one run into the store. Write failures never
// interrupt grading; the first one is kept and reported by Err.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string
	seq   int
	err   error
}

// NewRecorder returns a Recorder for runID.
func (s *Store) NewRecorder(ctx context.Context, runID string) *Recorder {
	return &Recorder{ctx: ctx, store: s, runID: runID}
}

// Record stores v as the next verdict of the run.
func (r *Recorder) Record(v models.Verdict) {
	if r.err != nil {
		return
	}
	if err := r.store.RecordVerdict(r.ctx, r.runID, r.seq, v); err != nil {
		r.err = err
		return
	}
	r.seq++
}

// Count returns how many verdicts were stored.
func (r *Recorder) Count() int {
	return r.seq
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// RunID returns the run the verdicts belong to.
func (r *Recorder) RunID() string {
	return r.runID
}
