package main

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	appservice "catalogadmin/pkg/catalog/application/service"
	"catalogadmin/pkg/catalog/domain/model"
)

var errMissingID = errors.New("product id argument is required")

func productsCommand() *cli.Command {
	pageFlags := []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "page size"},
		&cli.IntFlag{Name: "skip", Usage: "products to skip"},
		&cli.StringFlag{Name: "sort-by", Usage: "field to sort by"},
		&cli.StringFlag{Name: "order", Usage: "asc or desc"},
	}

	return &cli.Command{
		Name:  "products",
		Usage: "read and change catalog products",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list one page of products",
				Flags: append(pageFlags, &cli.StringFlag{Name: "title", Usage: "keep titles containing this text"}),
				Action: withApplication(func(c *cli.Context, app *application) error {
					page, err := app.queries.ListProducts(c.Context, appservice.ListQuery{
						ListParams:  listParamsFromFlags(c),
						TitleFilter: c.String("title"),
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, page)
				}),
			},
			{
				Name:      "search",
				Usage:     "search products",
				ArgsUsage: "<query>",
				Flags:     pageFlags,
				Action: withApplication(func(c *cli.Context, app *application) error {
					results, err := app.queries.SearchProducts(c.Context, model.SearchParams{
						Query:      c.Args().First(),
						ListParams: listParamsFromFlags(c),
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, results)
				}),
			},
			{
				Name:      "get",
				Usage:     "show one product",
				ArgsUsage: "<id>",
				Action: withApplication(func(c *cli.Context, app *application) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					detail, err := app.queries.GetProduct(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, detail)
				}),
			},
			{
				Name:  "create",
				Usage: "add a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "product JSON", Required: true},
				},
				Action: withApplication(func(c *cli.Context, app *application) error {
					var product model.Product
					if err := json.Unmarshal([]byte(c.String("data")), &product); err != nil {
						return errors.Wrap(err, "failed to parse product")
					}
					created, err := app.mutations.CreateProduct(c.Context, product)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, created)
				}),
			},
			{
				Name:      "update",
				Usage:     "change some fields of a product",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "JSON with the fields to change", Required: true},
				},
				Action: withApplication(func(c *cli.Context, app *application) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					var patch model.ProductPatch
					if err := json.Unmarshal([]byte(c.String("data")), &patch); err != nil {
						return errors.Wrap(err, "failed to parse patch")
					}
					updated, err := app.mutations.UpdateProduct(c.Context, id, patch)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, updated)
				}),
			},
			{
				Name:      "delete",
				Usage:     "remove a product",
				ArgsUsage: "<id>",
				Action: withApplication(func(c *cli.Context, app *application) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					deleted, err := app.mutations.DeleteProduct(c.Context, id)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, map[string]int{"id": deleted})
				}),
			},
		},
	}
}

func withApplication(action func(c *cli.Context, app *application) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		conf, logger, err := bootstrap(c)
		if err != nil {
			return err
		}
		app, err := newApplication(conf, logger)
		if err != nil {
			return err
		}
		defer app.close()
		return action(c, app)
	}
}

func listParamsFromFlags(c *cli.Context) model.ListParams {
	var params model.ListParams
	if c.IsSet("limit") {
		params.Limit = model.Some(c.Int("limit"))
	}
	if c.IsSet("skip") {
		params.Skip = model.Some(c.Int("skip"))
	}
	if c.IsSet("sort-by") {
		params.SortBy = model.Some(c.String("sort-by"))
	}
	if c.IsSet("order") {
		params.Order = model.Some(model.SortOrder(c.String("order")))
	}
	return params
}

func idArg(c *cli.Context) (int, error) {
	if c.NArg() == 0 {
		return 0, errMissingID
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, errors.Wrapf(err, "invalid product id %q", c.Args().First())
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
