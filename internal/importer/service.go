package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cashsync-dev/cashsync/internal/config"
	"github.com/cashsync-dev/cashsync/internal/csvfile"
	"github.com/cashsync-dev/cashsync/internal/dedup"
	"github.com/cashsync-dev/cashsync/internal/ledger"
)

// Service imports bank exports into the ledger table.
type Service struct {
	registry   *Registry
	cfg        *config.Config
	log        zerolog.Logger
	now        func() time.Time
	openLedger func(path string, log zerolog.Logger) (*ledger.Workbook, error)
}

// NewService returns a Service using the built-in adapters.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		registry:   DefaultRegistry(),
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		openLedger: ledger.Open,
	}
}

// Result summarizes one import.
type Result struct {
	File       string
	Parsed     int // transactions read from the CSV
	Skipped    int // rows that could not be parsed
	Duplicates int
	Imported   int
	Message    string
}

// Import adds the transactions in csvPath, exported from bank, to the ledger
// at ledgerPath. Transactions already in the ledger are skipped.
func (s *Service) Import(bank, csvPath, ledgerPath string) (Result, error) {
	res := Result{File: csvPath}
	log := s.log.With().
		Str("run_id", uuid.NewString()).
		Str("bank", bank).
		Str("ledger", ledgerPath).
		Logger()

	adapter, err := s.registry.Lookup(bank)
	if err != nil {
		return res, err
	}
	if err := validateFiles(csvPath, ledgerPath); err != nil {
		return res, err
	}

	log.Info().Str("csv", csvPath).Msg("reading CSV file")
	f, err := adapter.Read(csvPath)
	if err != nil {
		return res, err
	}

	wb, err := s.openLedger(ledgerPath, log)
	if err != nil {
		return res, err
	}
	defer wb.Close()

	tbl, err := wb.Table(s.cfg.Ledger.Table)
	if err != nil {
		return res, err
	}

	txns, skipped := adapter.Parse(f, log)
	res.Parsed, res.Skipped = len(txns), skipped
	log.Info().Int("transactions", len(txns)).Int("skipped", skipped).Msg("parsed CSV")

	records := Transform(txns, s.source(adapter, f), tbl.Columns(), s.now())
	filtered := dedup.Filter(tbl.Rows(), records)
	res.Duplicates = filtered.Duplicates

	if len(filtered.Kept) == 0 {
		res.Message = "No new transactions to import (all appear to be duplicates)"
		log.Warn().Int("duplicates", res.Duplicates).Msg(res.Message)
		return res, nil
	}

	res.Imported = tbl.AppendRows(filtered.Kept)
	if err := wb.Save(); err != nil {
		return res, err
	}

	res.Message = fmt.Sprintf("Successfully imported %d new transactions!", res.Imported)
	log.Info().Int("imported", res.Imported).Int("duplicates", res.Duplicates).Msg(res.Message)
	return res, nil
}

// ImportDir imports every CSV file in dir in name order and, when
// configured, moves each imported file into dir/processed. It stops at the
// first failure.
func (s *Service) ImportDir(bank, dir, ledgerPath string) ([]Result, error) {
	files, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.log.Info().Str("dir", dir).Msg("no CSV files to import")
		return nil, nil
	}

	var results []Result
	for _, file := range files {
		res, err := s.Import(bank, file.Path, ledgerPath)
		if err != nil {
			return results, fmt.Errorf("importing %s: %w", file.Name, err)
		}
		results = append(results, res)

		if s.cfg.Import.MoveProcessed {
			if err := MarkProcessed(dir, file.Name); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// Banks returns the registered adapters in name order.
func (s *Service) Banks() []*Adapter {
	var out []*Adapter
	for _, name := range s.registry.Names() {
		out = append(out, s.registry.Get(name))
	}
	return out
}

// source labels transactions from f, applying configured overrides.
func (s *Service) source(a *Adapter, f *csvfile.File) Source {
	src := Source{Institution: a.Institution, Account: a.AccountName(f)}
	if b, ok := s.cfg.Bank(a.Name); ok {
		if b.Account != "" {
			src.Account = b.Account
		}
		src.AccountNumber = b.AccountNumber
	}
	return src
}

func validateFiles(csvPath, ledgerPath string) error {
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("CSV file not found: %w", err)
	}
	if _, err := os.Stat(ledgerPath); err != nil {
		return fmt.Errorf("ledger file not found: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(csvPath), ".csv") {
		return fmt.Errorf("%s is not a CSV file", csvPath)
	}
	switch strings.ToLower(filepath.Ext(ledgerPath)) {
	case ".xlsx", ".xlsm":
	default:
		return fmt.Errorf("%s is not an Excel workbook (.xlsx or .xlsm)", ledgerPath)
	}
	return nil
}
