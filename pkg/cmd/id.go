package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/idgen"
)

var (
	idCount    int
	idLength   int
	idAlphabet string

	idCmd = &cobra.Command{
		Use:   "id",
		Short: "paste identifier helpers",
	}

	idGenCmd = &cobra.Command{
		Use:   "gen",
		Short: "print random paste identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := idgen.New(idLength, idAlphabet)
			if err != nil {
				return err
			}

			for range idCount {
				id, err := g.Generate()
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), id)
			}

			return nil
		},
	}
)

// registerIDCommands 注册标识符命令.
func registerIDCommands() {
	idGenCmd.Flags().IntVarP(&idCount, "count", "n", 1, "number of identifiers")
	idGenCmd.Flags().IntVarP(&idLength, "length", "l", configs.DefaultIDLength, "identifier length")
	idGenCmd.Flags().StringVar(&idAlphabet, "alphabet", configs.DefaultIDAlphabet, "identifier alphabet")

	idCmd.AddCommand(idGenCmd)
	rootCmd.AddCommand(idCmd)
}
