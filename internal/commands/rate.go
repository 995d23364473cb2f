package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate CURRENCY [ISSUE_DATE]",
		Short: "Show the NBP rate applicable to a document issued on a date",
		Long: `Show the NBP table A mid rate applicable to a document issued on
ISSUE_DATE (default: today), i.e. the last rate published before that day.
When the rate cannot be fetched, 1.0 is shown with source MANUAL.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			svc, err := a.rateService(cfg)
			if err != nil {
				return err
			}

			issue := time.Now()
			if len(args) == 2 {
				if issue, err = parseDate("date", args[1]); err != nil {
					return err
				}
			}

			res := svc.Resolve(cmd.Context(), args[0], issue)
			if res.Warning != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Warning)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n",
				args[0], res.Rate.String(), res.RateDate.Format(dateFormat), res.Source)
			return nil
		},
	}
	return cmd
}
