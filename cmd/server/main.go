package main

import (
	"fmt"
	"os"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/logger"
	"github.com/spf13/cobra"
)

const programName = "antugrow"

var globalFlags = struct {
	debug bool
}{}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Farm monitoring and crowdfunding service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(fundingsCommand())
	rootCmd.AddCommand(areaCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
