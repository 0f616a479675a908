package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"saju-engine/internal/saju"
	"saju-engine/internal/service"
)

func newScoreCmd() *cobra.Command {
	var (
		configPath string
		birth      birthFlags
		pillars    string
		target     string
		transit    string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the comprehensive score of a chart",
		Example: "  sajud score --pillars 庚午/辛巳/丙子/戊子 --transit 辛丑\n" +
			"  sajud score --date 2000-01-01 --hour 12 --gender female --target water",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req service.ScoreRequest
			switch {
			case pillars != "":
				p, err := saju.ParsePillars(pillars)
				if err != nil {
					return err
				}
				req.Pillars = &p
			case birth.date != "":
				in, err := birth.input()
				if err != nil {
					return err
				}
				req.Birth = &in
			default:
				return errors.New("either --pillars or --date is required")
			}

			if target != "" {
				el, err := saju.ParseElement(target)
				if err != nil {
					return err
				}
				req.Target = &el
			}
			if transit != "" {
				p, err := saju.ParsePillar(transit)
				if err != nil {
					return err
				}
				if !p.Known() {
					return fmt.Errorf("--transit %q is not a pillar", transit)
				}
				req.Transit = &p
			}

			return oneShot(cmd.Context(), configPath, func(ctx context.Context, a *app) error {
				score, err := a.svc.Score(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), score)
			})
		},
	}

	birth.register(cmd)
	cmd.Flags().StringVar(&pillars, "pillars", "", "chart label such as 甲寅/丙寅/戊午/庚申")
	cmd.Flags().StringVar(&target, "target", "", "force the affinity element")
	cmd.Flags().StringVar(&transit, "transit", "", "overlay a transiting pillar such as 辛丑")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}
