package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return err
	}

	return a.Run()
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
