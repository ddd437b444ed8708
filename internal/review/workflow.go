package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zombor/expense-tracker/internal/draft"
)

// Persister writes a confirmed draft and returns the backend's record id.
type Persister interface {
	Persist(ctx context.Context, d *draft.Draft) (string, error)
}

// Workflow walks one draft from editing through the confirmation summary
// to a saved record.
//
// Calls are serialized, so two overlapping confirms cannot both write. A
// confirm issued after a failed attempt writes again; the backend has no
// idempotency key and may store a duplicate.
type Workflow struct {
	mu         sync.Mutex
	d          *draft.Draft
	persister  Persister
	state      State
	validation ValidationState
	summary    *Summary
}

// NewWorkflow starts a workflow in the idle state.
func NewWorkflow(d *draft.Draft, persister Persister) *Workflow {
	return &Workflow{
		d:         d,
		persister: persister,
		state:     StateIdle,
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Validation returns the errors of the last save attempt.
func (w *Workflow) Validation() ValidationState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validation
}

// Summary returns the recap while in the summary or committed state.
func (w *Workflow) Summary() *Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}

// Draft returns the draft under review.
func (w *Workflow) Draft() *draft.Draft {
	return w.d
}

// CanFire reports whether t is permitted in the current state.
func (w *Workflow) CanFire(t Trigger) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := next(w.state, t)
	return ok
}

// Edit changes one field of the draft. Only allowed while idle. The error
// tied to the edited field is cleared right away; the field is not
// revalidated until the next save.
func (w *Workflow) Edit(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return fmt.Errorf("editing in state %s: %w", w.state, ErrInvalidTransition)
	}
	if err := w.d.Edit(field, value); err != nil {
		return err
	}

	schema := w.d.Schema()
	for _, k := range schema.DateFields {
		if k == field {
			w.validation.DateError = ""
		}
	}
	if field == schema.AmountField {
		w.validation.TotalAmountError = ""
		w.validation.Focus = ""
	}
	return nil
}

// Save runs the validation gate and, when it passes, moves to the summary.
func (w *Workflow) Save() (*Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, ok := next(w.state, TriggerSave)
	if !ok {
		return nil, fmt.Errorf("%s from %s: %w", TriggerSave, w.state, ErrInvalidTransition)
	}

	w.validation = Check(w.d)
	if !w.validation.OK() {
		return nil, fmt.Errorf("saving %s: %w", w.d.Kind(), ErrValidation)
	}

	w.summary = BuildSummary(w.d)
	w.state = to
	return w.summary, nil
}

// Cancel leaves the summary without writing anything. The draft is left
// exactly as it was.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, ok := next(w.state, TriggerCancel)
	if !ok {
		return fmt.Errorf("%s from %s: %w", TriggerCancel, w.state, ErrInvalidTransition)
	}
	w.summary = nil
	w.state = to
	return nil
}

// Confirm persists the draft with a single write. On failure the workflow
// stays in the summary so the user can retry.
func (w *Workflow) Confirm(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, ok := next(w.state, TriggerConfirm)
	if !ok {
		return "", fmt.Errorf("%s from %s: %w", TriggerConfirm, w.state, ErrInvalidTransition)
	}

	id, err := w.persister.Persist(ctx, w.d)
	if err != nil {
		slog.Error("Failed to save document", "kind", w.d.Kind(), "error", err)
		return "", fmt.Errorf("saving %s: %w", w.d.Kind(), err)
	}

	w.d.MarkSaved(id)
	w.state = to
	slog.Info("Document saved", "kind", w.d.Kind(), "id", id)
	return id, nil
}
