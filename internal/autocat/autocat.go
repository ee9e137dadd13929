// Package autocat fills in the Category of ledger transactions using the
// rules kept in the workbook's rules sheet.
package autocat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cashsync-dev/cashsync/internal/config"
	"github.com/cashsync-dev/cashsync/internal/ledger"
	"github.com/cashsync-dev/cashsync/internal/model"
	"github.com/cashsync-dev/cashsync/internal/rules"
)

// ErrNoCategoryColumn is returned when the transactions table has no
// Category column to write to.
var ErrNoCategoryColumn = errors.New("transactions table must contain a 'Category' column")

// Service runs the rules engine against a ledger.
type Service struct {
	cfg        *config.Config
	log        zerolog.Logger
	openLedger func(path string, log zerolog.Logger) (*ledger.Workbook, error)
}

// NewService returns a Service for the ledger described by cfg.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, log: log, openLedger: ledger.Open}
}

// Result summarizes one run.
type Result struct {
	Considered int // uncategorized rows
	Updated    int
	Rules      int
	Message    string
}

// Run categorizes the uncategorized transactions in the ledger at
// ledgerPath. The workbook is saved only when a row changed.
func (s *Service) Run(ledgerPath string) (Result, error) {
	var res Result
	log := s.log.With().
		Str("run_id", uuid.NewString()).
		Str("ledger", ledgerPath).
		Logger()

	wb, err := s.openLedger(ledgerPath, log)
	if err != nil {
		return res, err
	}
	defer wb.Close()

	tbl, err := wb.Table(s.cfg.Ledger.Table)
	if err != nil {
		return res, err
	}
	if !tbl.HasColumn(model.ColCategory) {
		return res, fmt.Errorf("table %s: %w", tbl.Name(), ErrNoCategoryColumn)
	}

	for _, row := range tbl.Rows() {
		if row.IsUncategorized() {
			res.Considered++
		}
	}
	if res.Considered == 0 {
		res.Message = "No uncategorized transactions to process."
		log.Info().Msg(res.Message)
		return res, nil
	}
	log.Info().Int("uncategorized", res.Considered).Msg("found uncategorized transactions")

	sheetName := s.cfg.Ledger.RulesSheet
	sheet, ok, err := wb.Sheet(sheetName)
	if err != nil {
		return res, err
	}
	if !ok || len(sheet.Rows) == 0 {
		log.Warn().Str("sheet", sheetName).Msg("AutoCat worksheet not found or empty")
		res.Message = noRulesMessage(sheetName)
		return res, nil
	}

	parsed := rules.ParseSheet(sheet.Name, sheet.Columns, sheet.Rows, tbl, log)
	res.Rules = len(parsed)
	if len(parsed) == 0 {
		res.Message = noRulesMessage(sheetName)
		log.Warn().Msg(res.Message)
		return res, nil
	}
	log.Info().Int("rules", len(parsed)).Msg("loaded categorization rules")

	out := rules.NewEngine(parsed, log).Apply(tbl)
	res.Updated = out.Updated
	if out.Updated == 0 {
		res.Message = "Completed. No updates were applied based on the rules."
		log.Info().Msg(res.Message)
		return res, nil
	}

	if err := wb.Save(); err != nil {
		return res, err
	}
	res.Message = fmt.Sprintf("Successfully categorized %d transactions!", out.Updated)
	log.Info().Int("updated", out.Updated).Msg(res.Message)
	return res, nil
}

func noRulesMessage(sheet string) string {
	return fmt.Sprintf("No valid categorization rules found in '%s' sheet.", sheet)
}
