package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenlabsco/exam-eval/api"
	"github.com/lumenlabsco/exam-eval/internal/config"
	"github.com/lumenlabsco/exam-eval/internal/store"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run history over HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stor, err := store.Open(st.cfg)
			if err != nil {
				return fmt.Errorf("serve: open store: %w", err)
			}
			defer stor.Close()

			srv, err := api.NewServer(st.cfg, stor)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
