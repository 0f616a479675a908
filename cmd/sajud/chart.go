package main

import (
	"context"

	"github.com/spf13/cobra"

	"saju-engine/internal/chart"
	"saju-engine/internal/saju"
)

func newChartCmd() *cobra.Command {
	var (
		configPath string
		birth      birthFlags
		luck       int
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the four pillars for a birth",
		Example: "  sajud chart --date 1990-05-15 --hour 10 --gender male\n" +
			"  sajud chart --date 1990-05-15 --gender female --luck 8",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := birth.input()
			if err != nil {
				return err
			}
			return oneShot(cmd.Context(), configPath, func(ctx context.Context, a *app) error {
				p, err := a.svc.Chart(ctx, in)
				if err != nil {
					return err
				}
				out := struct {
					Pillars saju.Pillars     `json:"pillars"`
					Label   string           `json:"label"`
					Luck    *chart.LuckCycle `json:"luck,omitempty"`
				}{Pillars: p, Label: p.String()}

				if luck > 0 {
					lc, err := a.svc.Luck(ctx, in, luck)
					if err != nil {
						return err
					}
					out.Luck = &lc
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	birth.register(cmd)
	cmd.Flags().IntVar(&luck, "luck", 0, "also print this many luck pillars")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}
