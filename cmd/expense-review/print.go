package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/zombor/expense-tracker/internal/normalize"
	"github.com/zombor/expense-tracker/internal/record"
	"github.com/zombor/expense-tracker/internal/review"
)

func printSummary(out io.Writer, s *review.Summary) {
	fmt.Fprintf(out, "%s (%s)\n", normalize.FieldLabel(s.Kind.String()), s.Category)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range s.Fields {
		fmt.Fprintf(tw, "  %s\t%s\n", f.Label, f.Value)
	}
	tw.Flush()

	if len(s.Items) > 0 {
		fmt.Fprintln(out, "  Items:")
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, it := range s.Items {
			fmt.Fprintf(tw, "    %s\tx%d\t%s\t\n", it.Name, it.Quantity, normalize.FormatCurrency(it.Price))
		}
		tw.Flush()
		fmt.Fprintf(out, "  Items total: %s\n", normalize.FormatCurrency(s.ItemsTotal))
	}
	fmt.Fprintf(out, "  Subtotal: %s  Tax: %s  Total: %s\n",
		normalize.FormatCurrency(s.Subtotal), normalize.FormatCurrency(s.Tax), normalize.FormatCurrency(s.Total))
}

func printValidation(out io.Writer, v review.ValidationState) {
	if v.DateError != "" {
		fmt.Fprintln(out, v.DateError)
	}
	if v.TotalAmountError != "" {
		fmt.Fprintln(out, v.TotalAmountError)
	}
}

func printReceipts(out io.Writer, receipts []record.StoredReceipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(out, "No receipts found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSELLER\tCATEGORY\tTOTAL\tORDER")
	var total float64
	for _, r := range receipts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			normalize.FormatDate(r.Date), r.SellerName, r.Category, normalize.FormatCurrency(r.TotalPrice), r.OrderID)
		total += r.TotalPrice
	}
	tw.Flush()
	fmt.Fprintf(out, "%d receipts, %s\n", len(receipts), normalize.FormatCurrency(total))
}

func printInvoices(out io.Writer, invoices []record.StoredInvoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(out, "No invoices found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tSELLER\tCUSTOMER\tTOTAL\tNUMBER")
	for _, inv := range invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			normalize.FormatDate(inv.DueDate), inv.SellerName, inv.CustomerName, normalize.FormatCurrency(inv.TotalAmount), inv.InvoiceNumber)
	}
	tw.Flush()
}

func printProfile(out io.Writer, p *record.StoredProfile) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	if p.Occupation != "" {
		fmt.Fprintf(tw, "Occupation\t%s\n", p.Occupation)
	}
	if p.HomeTown != "" {
		fmt.Fprintf(tw, "Home Town\t%s\n", p.HomeTown)
	}
	tw.Flush()
}
