package cmd

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect the effective configuration",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}

			return loadConfig()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "print the config file in use",
			RunE: func(cmd *cobra.Command, args []string) error {
				if f := configs.GetViper().ConfigFileUsed(); f != "" {
					fmt.Fprintln(cmd.OutOrStdout(), f)
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), "(defaults and environment only)")

				return nil
			},
		},
		&cobra.Command{
			Use:   "show [key]",
			Short: "print the effective config, or a single key such as paste.max_ttl",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var v any = configs.GetConfig()

				if len(args) == 1 {
					vp := configs.GetViper()
					if secretKey(args[0]) {
						return fmt.Errorf("refusing to print secret key %q", args[0])
					}

					if !vp.IsSet(args[0]) {
						return fmt.Errorf("unknown key %q", args[0])
					}

					v = vp.Get(args[0])
				} else if debug {
					configs.GetViper().Debug()
				}

				// 密码与令牌字段带 json:"-"，不会输出
				b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), string(b))

				return nil
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "load and validate the config, then list storage locations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := configs.GetConfig()
				fmt.Fprintf(cmd.OutOrStdout(), "config ok: kv=%s mq=%s locations=%v\n", cfg.KV.Type, cfg.MQ.Type, cfg.Storage.Names())

				return nil
			},
		},
	)

	return cmd
}

func secretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "nkey", "jwt"} {
		if strings.Contains(key, s) {
			return true
		}
	}

	return false
}

func registerConfigsCommands() {
	rootCmd.AddCommand(newConfigCmd())
}
