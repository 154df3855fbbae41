package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blues/antugrow/internal/geo"
	"github.com/spf13/cobra"
)

func areaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "area [points.json]",
		Short: "Compute the acreage of a boundary given as a JSON array of {lat,lng}",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var points []geo.Coordinate
			if err := json.NewDecoder(r).Decode(&points); err != nil {
				return fmt.Errorf("failed to decode points: %w", err)
			}
			b := geo.NewBoundary(points...)
			fmt.Fprintf(cmd.OutOrStdout(), "%s acres (%.1f m²)\n", geo.FormatAcres(b.Acres()), geo.SquareMeters(points))
			return nil
		},
	}
}
