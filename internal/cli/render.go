// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dark-flames/yukino-dev-sub000/expr"
)

func (a *app) newRenderCmd() *cobra.Command {
	var dialect string
	cmd := &cobra.Command{
		Use:   "render [query...]",
		Short: "Print the SQL of queries without running them",
		Long: `render builds the named queries, or every query if none is named, and
prints the SQL they render to with their parameters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.cfg.SQLDialect()
			if err != nil {
				return err
			}
			if dialect != "" {
				if d, err = expr.DialectByName(dialect); err != nil {
					return err
				}
			}
			ps, err := selectPipelines(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range ps {
				stmt, err := p.Build()
				if err != nil {
					return errors.Wrapf(err, "query %s", p.Name)
				}
				sql, params, err := expr.Render(d, stmt)
				if err != nil {
					return errors.Wrapf(err, "query %s", p.Name)
				}
				a.logger.Debug("rendered query", "name", p.Name, "dialect", d.Name)
				fmt.Fprintf(out, "-- %s: %s\n%s;\n", p.Name, p.Description, sql)
				if len(params) > 0 {
					fmt.Fprintf(out, "-- params: %v\n", expr.Args(params))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", "", "dialect to render in, overriding the config")
	return cmd
}
