package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cashsync-dev/cashsync/internal/importer"
	"github.com/cashsync-dev/cashsync/internal/logger"
)

func newBanksCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List the supported banks and the CSV columns they export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := importer.NewService(a.cfg, logger.FromContext(cmd.Context()))
			out := cmd.OutOrStdout()
			for _, b := range svc.Banks() {
				fmt.Fprintf(out, "%-12s %s\n", b.Name, b.Institution)
				fmt.Fprintf(out, "%-12s columns: %s\n", "", strings.Join(b.Expected, ", "))
			}
			return nil
		},
	}
}
