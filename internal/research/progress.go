package research

import (
	"sync"

	"github.com/anhoffmann/deepscout/internal/workflow"
)

// Progress tracks step states of the active deep-research run for display.
type Progress struct {
	mu    sync.RWMutex
	total int
	steps map[string]workflow.StepStatus
}

// ProgressSnapshot is a point-in-time view of a run.
type ProgressSnapshot struct {
	Total   int
	Done    int
	Running []string
	Steps   map[string]workflow.StepStatus
}

func newProgress() *Progress {
	return &Progress{steps: make(map[string]workflow.StepStatus)}
}

func (p *Progress) reset(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.steps = make(map[string]workflow.StepStatus, total)
}

func (p *Progress) observe(stepID string, status workflow.StepStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps[stepID] = status
}

func (p *Progress) snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := ProgressSnapshot{
		Total: p.total,
		Steps: make(map[string]workflow.StepStatus, len(p.steps)),
	}
	for id, st := range p.steps {
		snap.Steps[id] = st
		switch st {
		case workflow.StepSucceeded, workflow.StepFailed, workflow.StepSkipped:
			snap.Done++
		case workflow.StepRunning:
			snap.Running = append(snap.Running, id)
		}
	}
	return snap
}
