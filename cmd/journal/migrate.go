package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the journal schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			_, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			closeStore()

			log.Info("schema is up to date", zap.String("driver", cfg.DBDriver))
			return nil
		},
	}
}
