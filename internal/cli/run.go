// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package cli

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	yukino "github.com/dark-flames/yukino-dev-sub000"
	"github.com/dark-flames/yukino-dev-sub000/example"
)

// openDB opens the database of the config and seeds it with the example
// rows if seed is set.
func (a *app) openDB(ctx context.Context, seed bool) (*yukino.DB, error) {
	if !slices.Contains(sql.Drivers(), a.cfg.Driver) {
		return nil, errors.Errorf("unknown driver %q, available drivers: %v", a.cfg.Driver, sql.Drivers())
	}
	d, err := a.cfg.SQLDialect()
	if err != nil {
		return nil, err
	}
	sqldb, err := sql.Open(a.cfg.Driver, a.cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	if a.cfg.DSN == ":memory:" {
		// Every connection to :memory: opens a new database.
		sqldb.SetMaxOpenConns(1)
	}
	db := yukino.NewDB(sqldb, yukino.WithDialect(d), yukino.WithLogger(a.logger))
	if seed {
		a.logger.Info("seeding example tables", "driver", a.cfg.Driver)
		if err := example.Seed(ctx, sqldb, db); err != nil {
			sqldb.Close()
			return nil, err
		}
	}
	return db, nil
}

func (a *app) newRunCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "run [query...]",
		Short: "Run queries and print the rows they return",
		Long: `run builds the named queries, or every query if none is named, runs them
concurrently and prints their rows in order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := selectPipelines(args)
			if err != nil {
				return err
			}
			db, err := a.openDB(cmd.Context(), seed)
			if err != nil {
				return err
			}
			defer db.PlainDB().Close()

			results := make([][]string, len(ps))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, p := range ps {
				g.Go(func() error {
					rows, err := p.Run(ctx, db)
					if err != nil {
						return errors.Wrapf(err, "query %s", p.Name)
					}
					a.logger.Debug("ran query", "name", p.Name, "rows", len(rows))
					results[i] = rows
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, p := range ps {
				fmt.Fprintf(out, "%s (%d rows)\n", p.Name, len(results[i]))
				rows := make([][]string, len(results[i]))
				for j, r := range results[i] {
					rows[j] = []string{strconv.Itoa(j + 1), r}
				}
				if err := writeTable(out, []string{"#", "row"}, rows); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", true, "create and fill the example tables before running")
	return cmd
}
