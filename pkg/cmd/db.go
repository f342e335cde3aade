package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/storage/db"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "db", Short: "commands for the sql kv backend"}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "dialects",
			Aliases: []string{"ls"},
			Short:   "list the database dialects compiled into this binary",
			Run: func(cmd *cobra.Command, args []string) {
				printList(cmd, "database dialects", db.Dialects())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "create the descriptor table and purge expired rows",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := loadConfig(); err != nil {
					return err
				}

				cfg := configs.GetConfig()
				ctx := cmd.Context()

				conn, err := db.New(ctx, &cfg.DB, db.Options{})
				if err != nil {
					return err
				}
				defer conn.Close()

				table := cfg.KV.SQL.Table

				store, err := kv.NewSQLKVFromDB(ctx, conn.DB, table, true)
				if err != nil {
					return fmt.Errorf("migrate %s: %w", table, err)
				}

				purged, err := store.Purge(ctx)
				if err != nil {
					return fmt.Errorf("purge %s: %w", table, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): ready, purged %d expired rows\n", table, cfg.DB.Dialect(), purged)

				return nil
			},
		},
	)

	return cmd
}

func registerDBCommands() {
	rootCmd.AddCommand(newDBCmd())
}
