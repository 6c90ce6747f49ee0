package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/quotemanager/internal/cache"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/export"
	"github.com/andresuchdata/quotemanager/internal/repository/postgres"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/andresuchdata/quotemanager/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return fmt.Sprintf("%.2f", costing.Display(d))
}

func productArg(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", cli.Exit("a product ID is required", 2)
	}
	return id, nil
}

func listMaterials(c *cli.Context) error {
	a := fromContext(c)
	engine := a.quotes.Engine()

	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "ID\tNAME\tSUPPLIER\tUNIT PRICE\tON HAND\tNET\tREORDER AT")
	for _, m := range a.catalog.Materials(c.String("search")) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%g\t%g\n",
			m.ID, m.Name, m.Supplier, money(engine.PriceUnit(m)), m.OnHand, m.NetAvailable(), m.ReorderLevel)
	}
	return tw.Flush()
}

func listProducts(c *cli.Context) error {
	a := fromContext(c)

	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPARTS")
	for _, p := range a.catalog.Products(c.String("type")) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Type, len(p.Parts))
	}
	return tw.Flush()
}

func productCost(c *cli.Context) error {
	id, err := productArg(c)
	if err != nil {
		return err
	}
	pc, err := fromContext(c).quotes.ProductCost(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s  %s\n\n", pc.ProductID, pc.ProductName)
	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "MATERIAL\tQTY\tUNIT PRICE\tCOST\tRETAIL")
	for _, line := range pc.Lines {
		if !line.Resolved {
			fmt.Fprintf(tw, "%s\t%g\t-\t-\t-\n", line.Part.MaterialName, line.Part.Quantity)
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\n",
			line.Part.MaterialName, line.Part.Quantity, money(line.UnitPrice), money(line.Cost), money(line.Retail))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\t%s\n", money(pc.TotalCost), money(pc.TotalRetail))
	if err := tw.Flush(); err != nil {
		return err
	}
	if !pc.Complete() {
		logger.Log.Warn().Strs("materials", pc.Unresolved).Msg("unresolved materials priced at zero")
	}
	return nil
}

func producible(c *cli.Context) error {
	id, err := productArg(c)
	if err != nil {
		return err
	}
	report, err := fromContext(c).quotes.Producible(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s can be made %d time(s) from on-hand stock\n\n", report.ProductID, report.Units)
	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "MATERIAL\tQTY/UNIT\tON HAND\tLIMIT\t")
	for _, pl := range report.Parts {
		mark := ""
		switch {
		case !pl.Resolved:
			mark = "not in catalog"
		case pl.Bottleneck:
			mark = "bottleneck"
		}
		fmt.Fprintf(tw, "%s\t%g\t%g\t%d\t%s\n", pl.Part.MaterialName, pl.Part.Quantity, pl.OnHand, pl.Limit, mark)
	}
	return tw.Flush()
}

func quote(c *cli.Context) error {
	items, err := service.ParseItems(c.StringSlice("item"))
	if err != nil {
		return err
	}
	q, err := fromContext(c).quotes.QuoteCost(items)
	if err != nil {
		return err
	}

	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tUNIT COST\tUNIT RETAIL\tCOST\tRETAIL")
	for _, line := range q.Lines {
		if !line.Found {
			fmt.Fprintf(tw, "%s\t%g\tunknown product\t\t\t\n", line.ProductID, line.Quantity)
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\t%s\n", line.ProductID, line.Quantity,
			money(line.UnitCost), money(line.UnitRetail), money(line.LineCost), money(line.LineRetail))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t%s\n", money(q.TotalCost), money(q.TotalRetail))
	return tw.Flush()
}

func shoppingList(c *cli.Context) error {
	items, err := service.ParseItems(c.StringSlice("item"))
	if err != nil {
		return err
	}
	list, err := fromContext(c).quotes.ShoppingList(items)
	if err != nil {
		return err
	}

	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "MATERIAL\tNEEDED\tNET\tTO ORDER\tCOST\tSTATUS")
	for _, line := range list.Lines {
		status := "ok"
		switch {
		case line.Shortfall && line.Reorder:
			status = "short, reorder"
		case line.Shortfall:
			status = "short"
		case line.Reorder:
			status = "reorder"
		}
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%s\t%s\n", line.Material.Name,
			line.TotalNeeded, line.NetAvailable, line.ToOrder, money(line.OrderCost), status)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t\n", money(list.TotalOrderCost))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, u := range list.Unresolved {
		logger.Log.Warn().Str("item", u).Msg("not found in catalog")
	}

	if path := c.String("export"); path != "" {
		if err := export.WriteShoppingListFile(path, list); err != nil {
			return err
		}
		logger.Log.Info().Str("path", path).Int("lines", len(list.Lines)).Msg("shopping list exported")
	}
	return nil
}

func reorder(c *cli.Context) error {
	alerts := fromContext(c).catalog.ReorderAlerts()
	if len(alerts) == 0 {
		fmt.Fprintln(c.App.Writer, "No materials below their reorder level")
		return nil
	}

	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "ID\tMATERIAL\tNET\tREORDER AT\tSUPPLIER")
	for _, e := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%s\n", e.Material.ID, e.Material.Name, e.NetAvailable, e.Material.ReorderLevel, e.Material.Supplier)
	}
	return tw.Flush()
}

func importCatalog(c *cli.Context) error {
	a := fromContext(c)
	loaded := a.catalog.Current()

	db, err := postgres.NewDB(c.Context, &a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewCatalogRepository(db)
	if err := repo.EnsureSchema(c.Context); err != nil {
		return err
	}
	if err := repo.ImportCatalog(c.Context, loaded); err != nil {
		return err
	}

	logger.Log.Info().
		Str("from", a.source.Source.Name()).
		Int("materials", len(loaded.Materials())).
		Int("products", len(loaded.Products())).
		Msg("catalog imported")
	return nil
}

func flushCache(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Cache.Enabled {
		return cli.Exit("catalog cache is disabled (CACHE_ENABLED=false)", 1)
	}

	rowCache, err := cache.NewCatalogCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer rowCache.Close()

	if err := rowCache.InvalidateAll(c.Context); err != nil {
		return err
	}
	logger.Log.Info().Msg("catalog cache flushed")
	return nil
}
