package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/client"
	"github.com/zombor/expense-tracker/internal/draft"
	"github.com/zombor/expense-tracker/internal/persist"
	"github.com/zombor/expense-tracker/internal/record"
	"github.com/zombor/expense-tracker/internal/review"
)

// reviewer drives documents through upload, review and save from a
// terminal
type reviewer struct {
	client   *client.Client
	session  persist.Session
	in       *bufio.Reader
	out      io.Writer
	yes      bool
	edits    []string
	category string
	now      func() time.Time
}

func newReviewer(c *client.Client, session persist.Session, in io.Reader, out io.Writer) *reviewer {
	return &reviewer{
		client:  c,
		session: session,
		in:      bufio.NewReader(in),
		out:     out,
		now:     time.Now,
	}
}

// reviewFiles uploads paths and reviews every extracted document in turn.
// A document that fails validation or saving does not stop the others.
func (r *reviewer) reviewFiles(ctx context.Context, paths []string) error {
	files := make([]client.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, client.UploadFile{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
			Data:        data,
		})
	}

	slog.Info("Uploading documents", "count", len(files))
	results, err := r.client.Upload(ctx, r.session.IDToken, files)
	if err != nil {
		return err
	}

	adapter := persist.NewAdapter(r.client, r.session)
	var failed int
	for i, fields := range results {
		name := fmt.Sprintf("document %d", i+1)
		if i < len(files) {
			name = files[i].Name
		}
		fmt.Fprintf(r.out, "\n== %s ==\n", name)

		d := draft.New(fields, r.category)
		if _, err := r.review(ctx, d, adapter); err != nil {
			slog.Error("Failed to review document", "file", name, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents were not saved", failed, len(results))
	}
	return nil
}

// review applies the edits, shows the summary and saves on confirmation.
// A declined confirmation returns "" and no error and the edits stay on
// the draft. A failed save can be retried while the summary is open.
func (r *reviewer) review(ctx context.Context, d *draft.Draft, persister review.Persister) (string, error) {
	wf := review.NewWorkflow(d, persister)

	toggle := draft.NewPassThroughToggle(d)
	if err := toggle.Toggle(); err != nil {
		return "", err
	}
	if err := applyEdits(wf.Edit, r.edits); err != nil {
		_ = toggle.Cancel()
		return "", err
	}
	if err := toggle.Cancel(); err != nil {
		return "", err
	}

	summary, err := wf.Save()
	if err != nil {
		printValidation(r.out, wf.Validation())
		return "", err
	}
	printSummary(r.out, summary)

	ok, err := r.confirm(fmt.Sprintf("Save this %s?", d.Kind()))
	if err != nil {
		return "", err
	}
	if !ok {
		if err := wf.Cancel(); err != nil {
			return "", err
		}
		fmt.Fprintln(r.out, "Discarded.")
		return "", nil
	}

	for {
		id, err := wf.Confirm(ctx)
		if err == nil {
			fmt.Fprintf(r.out, "Saved %s %s\n", d.Kind(), id)
			return id, nil
		}
		fmt.Fprintf(r.out, "Save failed: %v\n", err)
		if r.yes || ctx.Err() != nil {
			return "", err
		}

		retry, perr := r.confirm("Retry save?")
		if perr != nil {
			return "", perr
		}
		if !retry {
			return "", err
		}
	}
}

// editReceipt changes a stored receipt. Edits are made on a snapshot and
// put back if the user does not confirm.
func (r *reviewer) editReceipt(ctx context.Context, orderID string) error {
	receipts, err := r.client.ListReceipts(ctx, r.session.IDToken)
	if err != nil {
		return err
	}
	var stored *record.StoredReceipt
	for i := range receipts {
		if receipts[i].OrderID == orderID {
			stored = &receipts[i]
			break
		}
	}
	if stored == nil {
		return fmt.Errorf("receipt %q not found", orderID)
	}

	d := draft.New(persist.ReceiptFields(&stored.Receipt), "")
	ok, err := r.editStored(d)
	if err != nil || !ok {
		return err
	}

	rec := persist.ReceiptRecord(d, r.session, r.now())
	if err := r.client.UpdateReceipt(ctx, r.session.IDToken, orderID, rec); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Updated receipt %s\n", orderID)
	return nil
}

// editInvoice changes a stored invoice the same way editReceipt does.
func (r *reviewer) editInvoice(ctx context.Context, number string) error {
	invoices, err := r.client.ListInvoices(ctx, r.session.IDToken)
	if err != nil {
		return err
	}
	var stored *record.StoredInvoice
	for i := range invoices {
		if invoices[i].InvoiceNumber == number {
			stored = &invoices[i]
			break
		}
	}
	if stored == nil {
		return fmt.Errorf("invoice %q not found", number)
	}

	d := draft.New(persist.InvoiceFields(&stored.Invoice), "")
	ok, err := r.editStored(d)
	if err != nil || !ok {
		return err
	}

	inv := persist.InvoiceRecord(d, r.session, r.now())
	if err := r.client.UpdateInvoice(ctx, r.session.IDToken, number, inv); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Updated invoice %s\n", number)
	return nil
}

// editStored runs the edits inside a restoring toggle and reports whether
// the user kept them.
func (r *reviewer) editStored(d *draft.Draft) (bool, error) {
	toggle := draft.NewRestoringToggle(d)
	if err := toggle.Toggle(); err != nil {
		return false, err
	}
	if err := applyEdits(d.Edit, r.edits); err != nil {
		_ = toggle.Cancel()
		return false, err
	}

	if v := review.Check(d); !v.OK() {
		_ = toggle.Cancel()
		printValidation(r.out, v)
		return false, review.ErrValidation
	}
	printSummary(r.out, review.BuildSummary(d))

	ok, err := r.confirm("Keep these changes?")
	if err != nil {
		_ = toggle.Cancel()
		return false, err
	}
	if !ok {
		fmt.Fprintln(r.out, "Changes discarded.")
		return false, toggle.Cancel()
	}
	return true, toggle.Commit()
}

func (r *reviewer) confirm(prompt string) (bool, error) {
	if r.yes {
		return true, nil
	}
	fmt.Fprintf(r.out, "%s [y/N]: ", prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// applyEdits applies field=value pairs in order
func applyEdits(edit func(field, value string) error, edits []string) error {
	for _, e := range edits {
		field, value, ok := strings.Cut(e, "=")
		if !ok {
			return fmt.Errorf("edit %q: expected field=value", e)
		}
		if err := edit(strings.TrimSpace(field), value); err != nil {
			return err
		}
	}
	return nil
}

func (r *reviewer) ask(ctx context.Context, question string) error {
	answer, err := r.client.Ask(ctx, r.session.IDToken, question)
	if errors.Is(err, client.ErrChatTimeout) {
		fmt.Fprintln(r.out, client.ChatTimeoutMessage)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, answer.Answer)
	if len(answer.Suggestions) > 0 {
		fmt.Fprintln(r.out, "\nYou could also ask:")
		for _, s := range answer.Suggestions {
			fmt.Fprintf(r.out, "  - %s\n", s)
		}
	}
	return nil
}
