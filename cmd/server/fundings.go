package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func fundingsCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "fundings",
		Short: "Read all funding campaigns from chain and print the overview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager, service, err := initFunding(cfg, nil)
			if err != nil {
				return err
			}
			if manager == nil {
				return fmt.Errorf("chain.rpc_url is not configured")
			}
			defer manager.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			overview, err := service.Refresh(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(overview)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "chain read timeout")
	return cmd
}
