package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
)

var dataCommands = []subcommands.Command{
	&countsCmd{}, &valueCmd{}, &nextIDsCmd{}, &settingsCmd{},
	&undoCmd{}, &importCmd{}, &exportCmd{},
}

type countsCmd struct{}

func (*countsCmd) Name() string             { return "counts" }
func (*countsCmd) Synopsis() string         { return "show total and low-stock item counts" }
func (*countsCmd) Usage() string            { return "stock counts\n" }
func (*countsCmd) SetFlags(_ *flag.FlagSet) {}

func (*countsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	c := m.Counts(ctx)
	fmt.Printf("items: %d\nlow:   %d\n", c.Total, c.Low)
	return subcommands.ExitSuccess
}

type valueCmd struct{}

func (*valueCmd) Name() string             { return "value" }
func (*valueCmd) Synopsis() string         { return "show the value of the stock on hand" }
func (*valueCmd) Usage() string            { return "stock value\n" }
func (*valueCmd) SetFlags(_ *flag.FlagSet) {}

func (*valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	v := m.Valuation(ctx)
	fmt.Printf("cost:     %s\nretail:   %s\nunpriced: %d\n",
		v.CostValue.StringFixed(2), v.RetailValue.StringFixed(2), v.UnpricedItems)
	return subcommands.ExitSuccess
}

type nextIDsCmd struct{}

func (*nextIDsCmd) Name() string             { return "next-ids" }
func (*nextIDsCmd) Synopsis() string         { return "show the next SKU and transaction ID" }
func (*nextIDsCmd) Usage() string            { return "stock next-ids\n" }
func (*nextIDsCmd) SetFlags(_ *flag.FlagSet) {}

func (*nextIDsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	fmt.Printf("sku: %s\ntx:  %s\n", m.NextSKU(ctx), m.NextTxID(ctx))
	return subcommands.ExitSuccess
}

type settingsCmd struct {
	categories string
	inclusive  bool
	delimiter  string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change the settings" }
func (*settingsCmd) Usage() string {
	return `stock settings [-categories a,b,c] [-inclusive=true|false] [-delimiter <c>]

  Without flags the current settings are printed. Flags not given keep
  their current value.
`
}

func (p *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.categories, "categories", "", "Comma separated category list.")
	f.BoolVar(&p.inclusive, "inclusive", true, "Treat quantity equal to the reorder level as low.")
	f.StringVar(&p.delimiter, "delimiter", "", "Single character CSV delimiter.")
}

func (p *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	current := m.Settings(ctx)

	changed := false
	categories, inclusive, delimiter := current.Categories, current.LowStockInclusive, current.CSVDelimiter
	f.Visit(func(fl *flag.Flag) {
		changed = true
		switch fl.Name {
		case "categories":
			categories = strings.Split(p.categories, ",")
		case "inclusive":
			inclusive = p.inclusive
		case "delimiter":
			delimiter = p.delimiter
		}
	})

	if changed {
		updated, err := m.UpdateSettings(ctx, categories, inclusive, delimiter)
		if err != nil {
			return fail(err)
		}
		current = updated
	}

	fmt.Printf("categories:          %s\n", strings.Join(current.Categories, ", "))
	fmt.Printf("low_stock_inclusive: %t\n", current.LowStockInclusive)
	fmt.Printf("csv_delimiter:       %q\n", current.CSVDelimiter)
	return subcommands.ExitSuccess
}

type undoCmd struct{}

func (*undoCmd) Name() string             { return "undo" }
func (*undoCmd) Synopsis() string         { return "restore the previous backup snapshot" }
func (*undoCmd) Usage() string            { return "stock undo\n" }
func (*undoCmd) SetFlags(_ *flag.FlagSet) {}

func (*undoCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	restored, err := m.Undo(ctx)
	if err != nil {
		return fail(err)
	}
	if !restored {
		fmt.Println("nothing to undo")
		return subcommands.ExitSuccess
	}
	fmt.Println("restored previous snapshot")
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge items from a CSV file" }
func (*importCmd) Usage() string {
	return `stock import <file.csv>

  Rows are matched by SKU, then by name, otherwise added. Invalid rows are
  skipped and reported with their row number.
`
}
func (*importCmd) SetFlags(_ *flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("usage: stock import <file.csv>")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	summary, err := m.ImportCSV(ctx, file)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("added: %d  updated: %d  skipped: %d\n", summary.Added, summary.Updated, summary.Skipped)
	for _, row := range summary.SkippedRows {
		fmt.Printf("  row %d: %s\n", row.Row, row.Reason)
	}
	for temp, sku := range summary.Reassigned {
		fmt.Printf("  %s -> %s\n", temp, sku)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write all items as CSV" }
func (*exportCmd) Usage() string    { return "stock export [-o <file.csv>]\n" }

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.output, "o", "", "Output file. Standard output when empty.")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}

	var w io.Writer = os.Stdout
	if p.output != "" {
		file, err := os.Create(p.output)
		if err != nil {
			return fail(err)
		}
		defer file.Close()
		w = file
	}
	if err := m.ExportCSV(ctx, w); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
