// Package ledger persists period ledgers as CSV files, one file per
// month. It owns the append semantics: new transactions entering an
// existing period get their running balance reconstructed from the last
// stored closing balance.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/currencyutils"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
)

const ledgerExtension = ".csv"

// amountCell is a ledger CSV numeric cell. Reads tolerate thousands
// separators, currency glyphs and blanks, coercing anything unparseable
// to zero; legacy ledger files carry statement cells verbatim. Writes
// always emit plain two-decimal text.
type amountCell struct {
	decimal.Decimal
}

func (a *amountCell) UnmarshalCSV(value string) error {
	d, err := currencyutils.ParseAmount(value)
	if err != nil {
		logging.GetLogger().WithError(&apperrors.ParseError{
			Field: "amount",
			Value: value,
			Err:   err,
		}).Debug("Coerced unparseable ledger amount to zero")
	}
	a.Decimal = d
	return nil
}

func (a amountCell) MarshalCSV() (string, error) {
	return a.StringFixed(2), nil
}

// ledgerRecord is the on-disk row layout. The column set and order are
// fixed; models.Transaction mirrors it for the rest of the application.
type ledgerRecord struct {
	Date           string     `csv:"Date"`
	Narration      string     `csv:"Narration"`
	Withdrawal     amountCell `csv:"Withdrawal Amt."`
	Deposit        amountCell `csv:"Deposit Amt."`
	ClosingBalance amountCell `csv:"Closing Balance"`
	Category       string     `csv:"Category"`
}

func recordFromTransaction(t models.Transaction) ledgerRecord {
	return ledgerRecord{
		Date:           t.Date,
		Narration:      t.Narration,
		Withdrawal:     amountCell{t.Withdrawal},
		Deposit:        amountCell{t.Deposit},
		ClosingBalance: amountCell{t.ClosingBalance},
		Category:       t.Category,
	}
}

func (r ledgerRecord) transaction() models.Transaction {
	return models.Transaction{
		Date:           r.Date,
		Narration:      r.Narration,
		Withdrawal:     r.Withdrawal.Decimal,
		Deposit:        r.Deposit.Decimal,
		ClosingBalance: r.ClosingBalance.Decimal,
		Category:       r.Category,
	}
}

// Store reads and writes period ledgers under a single data directory.
// Operations on the same period are serialized; different periods may
// proceed concurrently.
type Store struct {
	dir    string
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// periodLock returns the mutex guarding one period's file.
func (s *Store) periodLock(periodKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[periodKey]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[periodKey] = lock
	}
	return lock
}

func (s *Store) path(periodKey string) string {
	return filepath.Join(s.dir, periodKey+ledgerExtension)
}

// Exists reports whether a ledger file is present for the period.
func (s *Store) Exists(periodKey string) bool {
	_, err := os.Stat(s.path(periodKey))
	return err == nil
}

// Load reads the full ledger for a period in stored order. A missing
// period yields apperrors.NotFoundError.
func (s *Store) Load(periodKey string) ([]models.Transaction, error) {
	lock := s.periodLock(periodKey)
	lock.Lock()
	defer lock.Unlock()

	return s.load(periodKey)
}

func (s *Store) load(periodKey string) ([]models.Transaction, error) {
	file, err := os.Open(s.path(periodKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &apperrors.NotFoundError{PeriodKey: periodKey}
		}
		return nil, fmt.Errorf("error opening ledger for %s: %w", periodKey, err)
	}
	defer file.Close()

	var records []ledgerRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, nil
		}
		return nil, fmt.Errorf("error parsing ledger for %s: %w", periodKey, err)
	}

	transactions := make([]models.Transaction, len(records))
	for i, record := range records {
		transactions[i] = record.transaction()
	}
	return transactions, nil
}

// Write replaces the period's ledger with the given transactions as-is.
// Closing balances are stored exactly as provided; this is the path for
// full-statement ingestion, where the source already carries the bank's
// own running balance.
func (s *Store) Write(periodKey string, transactions []models.Transaction) error {
	lock := s.periodLock(periodKey)
	lock.Lock()
	defer lock.Unlock()

	return s.write(periodKey, transactions)
}

func (s *Store) write(periodKey string, transactions []models.Transaction) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	file, err := os.Create(s.path(periodKey))
	if err != nil {
		return fmt.Errorf("error creating ledger for %s: %w", periodKey, err)
	}
	defer file.Close()

	records := make([]ledgerRecord, len(transactions))
	for i, transaction := range transactions {
		records[i] = recordFromTransaction(transaction)
	}
	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("error writing ledger for %s: %w", periodKey, err)
	}

	s.logger.WithFields(
		logging.Field{Key: "period", Value: periodKey},
		logging.Field{Key: "transactions", Value: len(transactions)},
	).Info("Wrote period ledger")
	return nil
}

// Append adds transactions to the end of a period's ledger, rebuilding
// their running balances from the last stored closing balance. A period
// with no ledger yet starts from a zero balance. The stored prefix is
// never modified.
func (s *Store) Append(periodKey string, transactions []models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	lock := s.periodLock(periodKey)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.load(periodKey)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	balance := decimal.Zero
	if len(existing) > 0 {
		balance = existing[len(existing)-1].ClosingBalance
	}

	for i := range transactions {
		balance = transactions[i].NextClosingBalance(balance)
		transactions[i].ClosingBalance = balance
	}

	return s.write(periodKey, append(existing, transactions...))
}

// Periods lists the period keys that have a ledger file, sorted
// lexically.
func (s *Store) Periods() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error listing data directory: %w", err)
	}

	var periods []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ledgerExtension) {
			continue
		}
		periods = append(periods, strings.TrimSuffix(name, ledgerExtension))
	}
	sort.Strings(periods)
	return periods, nil
}
