package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cashsync-dev/cashsync/internal/autocat"
	"github.com/cashsync-dev/cashsync/internal/logger"
)

func newAutocatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autocat [ledger]",
		Short: "Categorize uncategorized transactions using the rules sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := autocat.NewService(a.cfg, logger.FromContext(cmd.Context()))
			res, err := svc.Run(a.ledgerPath(args, 0))
			if errors.Is(err, autocat.ErrNoCategoryColumn) {
				fmt.Fprintf(cmd.ErrOrStderr(), "The '%s' table must contain a 'Category' column. Add one and run autocat again.\n",
					a.cfg.Ledger.Table)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}
