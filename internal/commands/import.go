package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cashsync-dev/cashsync/internal/importer"
	"github.com/cashsync-dev/cashsync/internal/logger"
)

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bank> <csv-file|directory> [ledger]",
		Short: "Import a bank CSV export into the ledger",
		Long: "Import a bank CSV export into the ledger's transactions table.\n" +
			"When a directory is given every CSV file in it is imported in name order.\n" +
			"Run 'cashsync banks' to list the supported banks.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := importer.NewService(a.cfg, logger.FromContext(cmd.Context()))
			return runImport(cmd.OutOrStdout(), svc, args[0], args[1], a.ledgerPath(args, 2))
		},
	}
}

func runImport(out io.Writer, svc *importer.Service, bank, src, ledgerPath string) error {
	info, err := os.Stat(src)
	if err == nil && info.IsDir() {
		results, err := svc.ImportDir(bank, src, ledgerPath)
		for _, res := range results {
			fmt.Fprintf(out, "%s: %s\n", res.File, res.Message)
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintf(out, "No CSV files found in %s\n", src)
		}
		return nil
	}

	res, err := svc.Import(bank, src, ledgerPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Message)
	return nil
}
