// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package cli implements the yukino command, which renders and runs the
// queries of the example schema.
package cli

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dark-flames/yukino-dev-sub000/example"
	"github.com/dark-flames/yukino-dev-sub000/internal/config"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd returns the yukino command.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "yukino",
		Short: "Render and run typed queries over the example schema",
		Long: `yukino builds the queries of the example schema, a table of people,
their pets and the pets' toys, and either prints the SQL they render to or
runs them against a database seeded with the example rows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return errors.Wrap(err, "cannot load config")
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML or YAML config file")

	root.AddCommand(a.newListCmd(), a.newRenderCmd(), a.newRunCmd())
	return root
}

// Execute runs the yukino command with the process arguments.
func Execute() error {
	ctx, stop := contextWithSignals()
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// selectPipelines returns the pipelines named by names, or every pipeline
// if names is empty.
func selectPipelines(names []string) ([]example.Pipeline, error) {
	if len(names) == 0 {
		return example.Pipelines(), nil
	}
	ps := make([]example.Pipeline, 0, len(names))
	for _, name := range names {
		p, err := example.Lookup(name)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, p := range example.Pipelines() {
				rows = append(rows, []string{p.Name, p.Description})
			}
			return writeTable(cmd.OutOrStdout(), []string{"name", "description"}, rows)
		},
	}
}
