package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/catalogsource"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/andresuchdata/quotemanager/pkg/logger"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

// app is what every command needs once the catalog has been loaded.
type app struct {
	cfg     *config.Config
	source  *catalogsource.Opened
	catalog *service.CatalogService
	quotes  *service.QuoteService
}

func newSourceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "source",
		Usage:   "Catalog source: backend, workbook, drive, s3 or postgres",
		EnvVars: []string{"CATALOG_SOURCE"},
	}
}

func newWorkbookFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "workbook",
		Usage:   "Path to an .xlsx workbook or a directory with materials.csv and products.csv",
		EnvVars: []string{"CATALOG_WORKBOOK_PATH"},
	}
}

// loadCatalog opens the configured source and loads it once. A failed load is
// fatal here; the API server keeps running on an empty catalog instead.
func loadCatalog(c *cli.Context) error {
	cfg := config.Load()
	if c.IsSet("workbook") {
		cfg.Source.WorkbookPath = c.String("workbook")
		if !c.IsSet("source") {
			cfg.Source.Kind = config.SourceWorkbook
		}
	}

	source, err := catalogsource.Open(c.Context, cfg, c.String("source"), false)
	if err != nil {
		return err
	}

	store := catalog.NewStore(source.Source)
	catalogService := service.NewCatalogService(store, source)
	loaded, err := catalogService.Refresh(c.Context, false)
	if err != nil {
		source.Close()
		return fmt.Errorf("failed to load catalog from %s: %w", source.Source.Name(), err)
	}
	for _, w := range loaded.Warnings() {
		logger.Log.Warn().Msg(w)
	}

	engine := costing.NewEngine(costing.NewConfig(cfg.Costing.RoundingStep, cfg.Costing.RetailMultiplier))
	c.Context = context.WithValue(c.Context, appKey{}, &app{
		cfg:     cfg,
		source:  source,
		catalog: catalogService,
		quotes:  service.NewQuoteService(catalogService, engine, nil),
	})
	return nil
}

func closeCatalog(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app); ok && a != nil {
		return a.source.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app {
	return c.Context.Value(appKey{}).(*app)
}

func main() {
	cfg := config.Load()
	logger.Configure(cfg.Log.Level, cfg.Log.JSON)

	cliApp := &cli.App{
		Name:  "qm",
		Usage: "Cost products and plan material orders from the catalog",
		Flags: []cli.Flag{
			newSourceFlag(),
			newWorkbookFlag(),
		},
		Commands: append(withCatalog([]*cli.Command{
			{
				Name:   "materials",
				Usage:  "List materials with stock and unit price",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Filter by ID, name or supplier"}},
				Action: listMaterials,
			},
			{
				Name:   "products",
				Usage:  "List products",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "type", Usage: "Only products of this type"}},
				Action: listProducts,
			},
			{
				Name:      "cost",
				Usage:     "Price one product's bill of materials",
				ArgsUsage: "<product-id>",
				Action:    productCost,
			},
			{
				Name:      "producible",
				Usage:     "Show how many units on-hand stock can make",
				ArgsUsage: "<product-id>",
				Action:    producible,
			},
			{
				Name:   "quote",
				Usage:  "Price a multi-product selection",
				Flags:  []cli.Flag{newItemFlag()},
				Action: quote,
			},
			{
				Name:  "shopping-list",
				Usage: "Compare a selection's demand with stock and list what to order",
				Flags: []cli.Flag{
					newItemFlag(),
					&cli.StringFlag{Name: "export", Usage: "Also write the list to a .csv or .xlsx file"},
				},
				Action: shoppingList,
			},
			{
				Name:   "reorder",
				Usage:  "List materials below their reorder level",
				Action: reorder,
			},
			{
				Name:   "import",
				Usage:  "Copy the loaded catalog into Postgres",
				Action: importCatalog,
			},
		}), &cli.Command{
			Name:  "cache",
			Usage: "Manage the Redis catalog row cache",
			Subcommands: []*cli.Command{
				{
					Name:   "flush",
					Usage:  "Drop cached rows for every source",
					Action: flushCache,
				},
			},
		}),
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("qm failed")
	}
}

// withCatalog loads the catalog before each command and releases the source after.
func withCatalog(commands []*cli.Command) []*cli.Command {
	for _, cmd := range commands {
		cmd.Before = loadCatalog
		cmd.After = closeCatalog
	}
	return commands
}

func newItemFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:     "item",
		Aliases:  []string{"i"},
		Usage:    "Product and quantity as id=qty; repeat or comma-separate",
		Required: true,
	}
}
