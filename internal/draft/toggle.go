package draft

// PassThroughToggle is the edit switch of the receipt and invoice panels.
// Leaving edit mode keeps every edit; there is no restore point.
type PassThroughToggle struct {
	d *Draft
}

func NewPassThroughToggle(d *Draft) *PassThroughToggle {
	return &PassThroughToggle{d: d}
}

// Toggle flips edit mode.
func (t *PassThroughToggle) Toggle() error {
	return t.d.SetEditing(!t.d.Editing())
}

// Cancel leaves edit mode. Edits made so far are retained.
func (t *PassThroughToggle) Cancel() error {
	return t.d.SetEditing(false)
}

// RestoringToggle is the edit switch of the upload review and history
// screens. Entering edit mode takes a snapshot of the fields; leaving
// without Commit puts the snapshot back.
type RestoringToggle struct {
	d        *Draft
	snapshot map[string]string
}

func NewRestoringToggle(d *Draft) *RestoringToggle {
	return &RestoringToggle{d: d}
}

// Toggle enters edit mode, or cancels it when already editing.
func (t *RestoringToggle) Toggle() error {
	if t.d.Editing() {
		return t.Cancel()
	}
	if err := t.d.SetEditing(true); err != nil {
		return err
	}
	t.snapshot = t.d.snapshot()
	return nil
}

// Cancel restores the fields captured on entry and leaves edit mode.
func (t *RestoringToggle) Cancel() error {
	if t.snapshot != nil {
		t.d.restore(t.snapshot)
		t.snapshot = nil
	}
	return t.d.SetEditing(false)
}

// Commit keeps the edits and leaves edit mode.
func (t *RestoringToggle) Commit() error {
	t.snapshot = nil
	return t.d.SetEditing(false)
}
