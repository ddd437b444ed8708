package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/client"
	"github.com/zombor/expense-tracker/internal/persist"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	_ = godotenv.Load()

	fs := ff.NewFlagSet("expense-review")
	var (
		backend       = fs.StringLong("backend", "http://localhost:8080", "Expense backend base URL")
		userID        = fs.StringLong("user-id", "", "Signed-in user id")
		email         = fs.StringLong("email", "", "Signed-in user email")
		token         = fs.StringLong("token", "", "Identity token issued by the backend")
		category      = fs.StringLong("category", "", "Expense category for uploaded documents")
		edits         = fs.StringListLong("set", "Field edit as field=value (repeatable)")
		yes           = fs.BoolLong("yes", "Save without asking for confirmation")
		list          = fs.BoolLong("list", "List saved receipts")
		listInvoices  = fs.BoolLong("invoices", "List saved invoices")
		year          = fs.IntLong("year", 0, "Limit --list to this year (with --month)")
		month         = fs.IntLong("month", 0, "Limit --list to this month, 1-12")
		listCategory  = fs.StringLong("list-category", "", "Limit --list --month to this category")
		question      = fs.StringLong("ask", "", "Ask the spending assistant a question")
		editReceipt   = fs.StringLong("edit-receipt", "", "Edit the saved receipt with this order id")
		editInvoice   = fs.StringLong("edit-invoice", "", "Edit the saved invoice with this number")
		deleteReceipt = fs.StringLong("delete-receipt", "", "Delete the saved receipt with this order id")
		deleteInvoice = fs.StringLong("delete-invoice", "", "Delete the saved invoice with this number")
		showProfile   = fs.BoolLong("profile", "Show your profile")
		setProfile    = fs.StringListLong("set-profile", "Profile edit as field=value: name, email, occupation, home_town (repeatable)")
		checkInvoices = fs.BoolLong("check-invoices", "Send reminders for invoices due soon")
		withinDays    = fs.IntLong("within-days", 14, "Reminder window for --check-invoices, in days")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_REVIEW"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	session := persist.Session{UID: *userID, Email: *email, IDToken: *token}
	var opts []client.Option
	if session.IDToken == "" && session.UID != "" {
		// backend without token checks scopes requests by user_id
		opts = append(opts, client.WithUserID(session.UID))
	}
	if !session.Authenticated() {
		slog.Warn("No user id set; records are saved without an owner")
	}

	r := newReviewer(client.New(*backend, opts...), session, os.Stdin, os.Stdout)
	r.yes = *yes
	r.edits = *edits
	r.category = *category

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *question != "":
		err = r.ask(ctx, *question)
	case *list:
		err = r.listReceipts(ctx, *year, time.Month(*month), *listCategory)
	case *listInvoices:
		err = r.listInvoices(ctx)
	case *editReceipt != "":
		err = r.editReceipt(ctx, *editReceipt)
	case *editInvoice != "":
		err = r.editInvoice(ctx, *editInvoice)
	case *deleteReceipt != "":
		err = r.deleteReceipt(ctx, *deleteReceipt)
	case *deleteInvoice != "":
		err = r.deleteInvoice(ctx, *deleteInvoice)
	case len(*setProfile) > 0:
		err = r.updateProfile(ctx, *setProfile)
	case *showProfile:
		err = r.showProfile(ctx)
	case *checkInvoices:
		err = r.checkInvoices(ctx, *withinDays)
	case len(fs.GetArgs()) > 0:
		err = r.reviewFiles(ctx, fs.GetArgs())
	default:
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: no documents given")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func (r *reviewer) listReceipts(ctx context.Context, year int, month time.Month, category string) error {
	if month == 0 {
		receipts, err := r.client.ListReceipts(ctx, r.session.IDToken)
		if err != nil {
			return err
		}
		printReceipts(r.out, receipts)
		return nil
	}

	if year == 0 {
		year = r.now().Year()
	}
	receipts, err := r.client.ReceiptsByMonth(ctx, r.session.IDToken, year, month, category)
	if err != nil {
		return err
	}
	printReceipts(r.out, receipts)
	return nil
}

func (r *reviewer) listInvoices(ctx context.Context) error {
	invoices, err := r.client.ListInvoices(ctx, r.session.IDToken)
	if err != nil {
		return err
	}
	printInvoices(r.out, invoices)
	return nil
}

func (r *reviewer) deleteReceipt(ctx context.Context, orderID string) error {
	ok, err := r.confirm(fmt.Sprintf("Delete receipt %s?", orderID))
	if err != nil || !ok {
		return err
	}
	if err := r.client.DeleteReceipt(ctx, r.session.IDToken, orderID); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted receipt %s\n", orderID)
	return nil
}

func (r *reviewer) deleteInvoice(ctx context.Context, number string) error {
	ok, err := r.confirm(fmt.Sprintf("Delete invoice %s?", number))
	if err != nil || !ok {
		return err
	}
	if err := r.client.DeleteInvoice(ctx, r.session.IDToken, number); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted invoice %s\n", number)
	return nil
}
