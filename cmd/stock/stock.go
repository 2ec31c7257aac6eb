package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

var stockCommands = []subcommands.Command{
	&moveCmd{name: "in", synopsis: "record received stock"},
	&moveCmd{name: "out", synopsis: "record issued stock"},
	&adjustCmd{}, &historyCmd{},
}

// moveCmd implements both "in" and "out"
type moveCmd struct {
	name     string
	synopsis string
	reason   string
	note     string
}

func (p *moveCmd) Name() string     { return p.name }
func (p *moveCmd) Synopsis() string { return p.synopsis }
func (p *moveCmd) Usage() string {
	return fmt.Sprintf("stock %s [-reason <r>] [-note <n>] <sku> <qty>\n", p.name)
}

func (p *moveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.reason, "reason", "", "Reason recorded with the movement.")
	f.StringVar(&p.note, "note", "", "Optional note.")
}

func (p *moveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("usage: %s", p.Usage())
	}
	qty, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		return usage("invalid quantity %q", f.Arg(1))
	}

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}

	var tx inventory.Transaction
	if p.name == "in" {
		tx, err = m.StockIn(ctx, f.Arg(0), qty, p.reason, p.note)
	} else {
		tx, err = m.StockOut(ctx, f.Arg(0), qty, p.reason, p.note)
	}
	if err != nil {
		return fail(err)
	}
	printMovement(ctx, m, tx)
	return subcommands.ExitSuccess
}

type adjustCmd struct {
	mode   string
	reason string
	note   string
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "correct the quantity on hand" }
func (*adjustCmd) Usage() string {
	return `stock adjust [-mode set|delta] [-reason <r>] [-note <n>] <sku> <qty>

  With -mode set (default) the quantity becomes <qty>. With -mode delta
  <qty> is added and may be negative.
`
}

func (p *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.mode, "mode", string(inventory.AdjustModeSet), "Adjustment mode: set or delta.")
	f.StringVar(&p.reason, "reason", "", "Reason recorded with the adjustment.")
	f.StringVar(&p.note, "note", "", "Optional note. Describes the change when empty.")
}

func (p *adjustCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("usage: stock adjust [flags] <sku> <qty>")
	}
	qty, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		return usage("invalid quantity %q", f.Arg(1))
	}

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	tx, err := m.StockAdjust(ctx, f.Arg(0), qty, inventory.AdjustMode(p.mode), p.reason, p.note)
	if err != nil {
		return fail(err)
	}
	printMovement(ctx, m, tx)
	return subcommands.ExitSuccess
}

type historyCmd struct {
	limit int
	from  string
	to    string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show the transactions of an item" }
func (*historyCmd) Usage() string {
	return `stock history [-limit <n>] [-from <date>] [-to <date>] <sku>

  Lists transactions newest first. With -from or -to (YYYY-MM-DD or RFC3339)
  the range is listed oldest first.
`
}

func (p *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&p.limit, "limit", 20, "Maximum number of transactions (0 for all).")
	f.StringVar(&p.from, "from", "", "Start of the range, inclusive.")
	f.StringVar(&p.to, "to", "", "End of the range, inclusive.")
}

func (p *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("usage: stock history [flags] <sku>")
	}
	from, err := parseDate(p.from, false)
	if err != nil {
		return usage("invalid -from: %v", err)
	}
	to, err := parseDate(p.to, true)
	if err != nil {
		return usage("invalid -to: %v", err)
	}

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}

	var txs []inventory.Transaction
	if p.from != "" || p.to != "" {
		txs, err = m.HistoryByDateRange(ctx, f.Arg(0), from, to)
	} else {
		txs, err = m.History(ctx, f.Arg(0), p.limit)
	}
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TX\tTIME\tTYPE\tQTY\tREASON\tNOTE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			tx.ID, tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Type, tx.Qty, tx.Reason, text(tx.Note))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

func printMovement(ctx context.Context, m *inventory.Manager, tx inventory.Transaction) {
	item, err := m.GetItem(ctx, tx.SKU)
	if err != nil {
		fmt.Printf("%s %s %s %d\n", tx.ID, tx.Type, tx.SKU, tx.Qty)
		return
	}
	fmt.Printf("%s %s %s %d (now %d %s)\n", tx.ID, tx.Type, tx.SKU, tx.Qty, item.StockQty, item.Unit)
}

// parseDate accepts a date or an RFC3339 timestamp. A bare end date covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
