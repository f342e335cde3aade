// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
)

var (
	configPath string
	envFile    string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "pastevault",
		Short: "Anonymous paste and file sharing backed by S3 compatible storage",
		Long: "pastevault stores pastes, files and links in S3 compatible buckets, indexes them in a\n" +
			"key-value store and serves them back with optional passwords and access limits.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	registerServeCommands()
	registerConfigsCommands()
	registerKVCommands()
	registerMQCommands()
	registerDBCommands()
	registerIDCommands()
	registerPasswordCommands()
}

// loadEnv 加载 dotenv 文件，文件不存在时忽略. 已存在的环境变量不会被覆盖.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// loadConfig 供需要配置的子命令调用.
func loadConfig() error {
	return configs.InitConfig(configPath)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
