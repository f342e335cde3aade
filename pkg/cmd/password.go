package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/credential"
)

var (
	passwordScheme string

	passwordCmd = &cobra.Command{
		Use:   "password",
		Short: "paste password helpers",
	}

	// 运维手工修复描述符时使用，例如为历史记录补写指纹.
	passwordFingerprintCmd = &cobra.Command{
		Use:   "fingerprint [password]",
		Short: "print the stored fingerprint of a password (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string

			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}

				plain = strings.TrimRight(line, "\r\n")
			}

			h, err := credential.New(passwordScheme, configs.DefaultPasswordMaxLength)
			if err != nil {
				return err
			}

			if err := h.Validate(plain); err != nil {
				return err
			}

			fp, err := h.Fingerprint(plain)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), fp)

			return nil
		},
	}
)

// registerPasswordCommands 注册密码命令.
func registerPasswordCommands() {
	passwordFingerprintCmd.Flags().StringVar(&passwordScheme, "scheme", configs.PasswordSchemeSHA256, "fingerprint scheme (sha256-16 or bcrypt)")

	passwordCmd.AddCommand(passwordFingerprintCmd)
	rootCmd.AddCommand(passwordCmd)
}
