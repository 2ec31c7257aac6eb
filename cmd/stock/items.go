package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/nemonet1337/zaiLedger/pkg/inventory"
)

var itemCommands = []subcommands.Command{
	&addCmd{}, &updateCmd{}, &deleteCmd{}, &listCmd{}, &showCmd{},
}

// itemFields are the item attributes shared by add and update
type itemFields struct {
	name, category, unit     string
	cost, price              string
	stock, reorder           string
	supplier, barcode, notes string
}

func (p *itemFields) setFlags(f *flag.FlagSet) {
	f.StringVar(&p.name, "name", "", "Item name (unique, case-insensitive).")
	f.StringVar(&p.category, "category", "", "Category (defaults to Other).")
	f.StringVar(&p.unit, "unit", "", "Unit of measure (defaults to piece).")
	f.StringVar(&p.cost, "cost", "", "Unit cost. Empty clears it on update.")
	f.StringVar(&p.price, "price", "", "Unit price. Empty clears it on update.")
	f.StringVar(&p.stock, "stock", "", "Quantity on hand.")
	f.StringVar(&p.reorder, "reorder", "", "Reorder level.")
	f.StringVar(&p.supplier, "supplier", "", "Supplier.")
	f.StringVar(&p.barcode, "barcode", "", "Barcode.")
	f.StringVar(&p.notes, "notes", "", "Free-form notes.")
}

type addCmd struct {
	itemFields
	id string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a new item" }
func (*addCmd) Usage() string {
	return `stock add -name <name> [-id <sku>] [-category <c>] [-unit <u>] [-cost <n>] [-price <n>] [-stock <n>] [-reorder <n>] ...

  Adds an item. Without -id the next SKU-#### is assigned.
`
}

func (p *addCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.StringVar(&p.id, "id", "", "Explicit SKU. Generated when empty.")
}

func (p *addCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	in := inventory.ItemInput{
		ID:       p.id,
		Name:     p.name,
		Category: p.category,
		Unit:     p.unit,
		Supplier: p.supplier,
		Barcode:  p.barcode,
		Notes:    p.notes,
	}
	var err error
	if in.UnitCost, err = inventory.ParseDecimal("unit_cost", p.cost); err != nil {
		return fail(err)
	}
	if in.UnitPrice, err = inventory.ParseDecimal("unit_price", p.price); err != nil {
		return fail(err)
	}
	if in.StockQty, err = optionalQuantity("stock_qty", p.stock); err != nil {
		return fail(err)
	}
	if in.ReorderLevel, err = optionalQuantity("reorder_level", p.reorder); err != nil {
		return fail(err)
	}

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	item, err := m.AddItem(ctx, in)
	if err != nil {
		return fail(err)
	}
	printItem(item)
	return subcommands.ExitSuccess
}

type updateCmd struct {
	itemFields
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change fields of an item" }
func (*updateCmd) Usage() string {
	return `stock update [-name <name>] [-cost <n>] ... <sku>

  Only the flags given are changed. An empty value clears optional fields.
`
}

func (p *updateCmd) SetFlags(f *flag.FlagSet) { p.setFlags(f) }

func (p *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("usage: stock update [flags] <sku>")
	}

	var (
		upd inventory.ItemUpdate
		err error
	)
	f.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		v := fl.Value.String()
		switch fl.Name {
		case "name":
			upd.Name = &v
		case "category":
			upd.Category = &v
		case "unit":
			upd.Unit = &v
		case "supplier":
			upd.Supplier = &v
		case "barcode":
			upd.Barcode = &v
		case "notes":
			upd.Notes = &v
		case "cost":
			upd.UnitCost, err = nullableAmount("unit_cost", v)
		case "price":
			upd.UnitPrice, err = nullableAmount("unit_price", v)
		case "stock":
			upd.StockQty, err = requiredQuantity("stock_qty", v)
		case "reorder":
			upd.ReorderLevel, err = requiredQuantity("reorder_level", v)
		}
	})
	if err != nil {
		return fail(err)
	}

	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	item, err := m.UpdateItem(ctx, f.Arg(0), upd)
	if err != nil {
		return fail(err)
	}
	printItem(item)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	cascade bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an item" }
func (*deleteCmd) Usage() string {
	return `stock delete [-cascade] <sku>

  Items with recorded transactions are only deleted with -cascade, which
  also removes their history.
`
}

func (p *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.cascade, "cascade", false, "Also delete the item's transactions.")
}

func (p *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("usage: stock delete [-cascade] <sku>")
	}
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	if err := m.DeleteItem(ctx, f.Arg(0), p.cascade); err != nil {
		return fail(err)
	}
	fmt.Printf("deleted %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type listCmd struct {
	query    string
	category string
	low      bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list or search items" }
func (*listCmd) Usage() string {
	return `stock list [-q <text>] [-category <c>] [-low]
`
}

func (p *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.query, "q", "", "Case-insensitive text matched against name, SKU and supplier.")
	f.StringVar(&p.category, "category", "", "Only this category (All for every category).")
	f.BoolVar(&p.low, "low", false, "Only items at or below their reorder level.")
}

func (p *listCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	items := m.SearchItems(ctx, inventory.ItemFilter{Query: p.query, Category: p.category, LowOnly: p.low})
	settings := m.Settings(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tCATEGORY\tQTY\tREORDER\tUNIT\tCOST\tPRICE\t")
	for _, item := range items {
		marker := ""
		if settings.IsLow(item) {
			marker = "LOW"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, item.Category, item.StockQty, item.ReorderLevel, item.Unit,
			amount(item.UnitCost), amount(item.UnitPrice), marker)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type showCmd struct{}

func (*showCmd) Name() string             { return "show" }
func (*showCmd) Synopsis() string         { return "show one item" }
func (*showCmd) Usage() string            { return "stock show <sku>\n" }
func (*showCmd) SetFlags(_ *flag.FlagSet) {}

func (*showCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("usage: stock show <sku>")
	}
	m, status := ledgerFrom(ctx, args)
	if m == nil {
		return status
	}
	item, err := m.GetItem(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	printItem(item)
	return subcommands.ExitSuccess
}

func printItem(item inventory.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", item.ID)
	fmt.Fprintf(w, "name:\t%s\n", item.Name)
	fmt.Fprintf(w, "category:\t%s\n", item.Category)
	fmt.Fprintf(w, "unit:\t%s\n", item.Unit)
	fmt.Fprintf(w, "unit_cost:\t%s\n", amount(item.UnitCost))
	fmt.Fprintf(w, "unit_price:\t%s\n", amount(item.UnitPrice))
	fmt.Fprintf(w, "stock_qty:\t%d\n", item.StockQty)
	fmt.Fprintf(w, "reorder_level:\t%d\n", item.ReorderLevel)
	fmt.Fprintf(w, "supplier:\t%s\n", text(item.Supplier))
	fmt.Fprintf(w, "barcode:\t%s\n", text(item.Barcode))
	fmt.Fprintf(w, "notes:\t%s\n", text(item.Notes))
	fmt.Fprintf(w, "last_updated:\t%s\n", item.LastUpdated.Format("2006-01-02 15:04:05"))
	w.Flush()
}

func optionalQuantity(field, s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := inventory.ParseQuantity(field, s, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func requiredQuantity(field, s string) (*int64, error) {
	if s == "" {
		return nil, inventory.NewValidationError(field, "値が必要です", s)
	}
	return optionalQuantity(field, s)
}

func nullableAmount(field, s string) (*decimal.NullDecimal, error) {
	d, err := inventory.ParseDecimal(field, s)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return &decimal.NullDecimal{}, nil
	}
	return &decimal.NullDecimal{Decimal: *d, Valid: true}, nil
}

func amount(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func text(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
