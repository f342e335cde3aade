package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
)

func newKVCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "kv", Short: "descriptor index commands"}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "types",
			Aliases: []string{"ls"},
			Short:   "list the kv backends compiled into this binary",
			Run: func(cmd *cobra.Command, args []string) {
				names := make([]string, 0)
				for _, t := range kv.GetRegisteredKVTypes() {
					names = append(names, string(t))
				}

				printList(cmd, "kv backends", names)
			},
		},
		newKVPastesCmd(),
	)

	return cmd
}

// newKVPastesCmd 只读，不会增加访问次数也不会清理过期记录.
func newKVPastesCmd() *cobra.Command {
	var idsOnly bool

	cmd := &cobra.Command{
		Use:   "pastes",
		Short: "list descriptors stored in the configured kv",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}

			cfg := configs.GetConfig()
			ctx := cmd.Context()

			client, err := kv.NewKVClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			index := cache.NewCache(client, cfg.Paste.KeyPrefix)

			ids, err := index.Names(ctx)
			if err != nil {
				return err
			}

			if idsOnly {
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}

				return nil
			}

			return printDescriptors(ctx, cmd, index, ids)
		},
	}

	cmd.Flags().BoolVarP(&idsOnly, "quiet", "q", false, "print identifiers only")

	return cmd
}

func printDescriptors(ctx context.Context, cmd *cobra.Command, index *cache.Cache, ids []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tLOCATION\tSIZE\tACCESS\tEXPIRES\tFLAGS")

	for _, id := range ids {
		d, err := cache.Get[model.PasteDescriptor](ctx, index, id)
		if err != nil {
			// 列出后被删除或已过期
			continue
		}

		access := fmt.Sprint(d.AccessCount)
		if d.MaxAccessCount > 0 {
			access += fmt.Sprintf("/%d", d.MaxAccessCount)
		}

		flags := ""
		if d.HasPassword() {
			flags += "P"
		}

		if d.IsPending() {
			flags += "U"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			id, d.PasteType, d.Location(), d.FileSize, access, d.ExpiredAt.Format(time.RFC3339), flags)
	}

	return tw.Flush()
}

func printList(cmd *cobra.Command, title string, items []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", title)

	for _, it := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", it)
	}
}

func registerKVCommands() {
	rootCmd.AddCommand(newKVCmd())
}
