package mint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	sol "candy-drop/pkg/solana"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeFailed    Outcome = "FAILED"
)

// JournalEntry is one line of the mint journal
type JournalEntry struct {
	Timestamp time.Time
	Outcome   Outcome
	Wallet    string
	Mint      string
	Signature string
	Fee       uint64 // in lamports
	Kind      string
	Message   string
}

// JournalSummary totals the journal
type JournalSummary struct {
	Succeeded int
	Failed    int
	TotalFees uint64
	LastMint  time.Time
}

var journalHeader = []string{
	"Timestamp", "Outcome", "Wallet", "Mint", "Signature", "Fee (SOL)", "Kind", "Message",
}

// Journal appends mint outcomes to monthly CSV files in dataDir
type Journal struct {
	dataDir string
	mu      sync.Mutex
	now     func() time.Time
}

func NewJournal(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Journal{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

func (j *Journal) Record(entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.now()
	}

	filename := fmt.Sprintf("mints_%s.csv", entry.Timestamp.Format("2006-01"))
	path := filepath.Join(j.dataDir, filename)

	fileExists := false
	if _, err := os.Stat(path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if !fileExists {
		if err := writer.Write(journalHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	record := []string{
		entry.Timestamp.Format(time.RFC3339),
		string(entry.Outcome),
		entry.Wallet,
		entry.Mint,
		entry.Signature,
		fmt.Sprintf("%.9f", float64(entry.Fee)/sol.LamportsPerSol),
		entry.Kind,
		entry.Message,
	}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

// Entries returns every recorded entry, oldest first
func (j *Journal) Entries() ([]JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(j.dataDir, "mints_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to find journal files: %w", err)
	}
	sort.Strings(files)

	var entries []JournalEntry
	for _, path := range files {
		fileEntries, err := readJournalFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

func (j *Journal) Summary() (JournalSummary, error) {
	entries, err := j.Entries()
	if err != nil {
		return JournalSummary{}, err
	}

	var summary JournalSummary
	for _, entry := range entries {
		summary.TotalFees += entry.Fee
		switch entry.Outcome {
		case OutcomeSucceeded:
			summary.Succeeded++
			if entry.Timestamp.After(summary.LastMint) {
				summary.LastMint = entry.Timestamp
			}
		case OutcomeFailed:
			summary.Failed++
		}
	}
	return summary, nil
}

func readJournalFile(path string) ([]JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", path, err)
	}

	var entries []JournalEntry
	// Skip header row
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < len(journalHeader) {
			continue
		}

		timestamp, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			continue
		}

		entries = append(entries, JournalEntry{
			Timestamp: timestamp,
			Outcome:   Outcome(record[1]),
			Wallet:    record[2],
			Mint:      record[3],
			Signature: record[4],
			Fee:       parseSOLToLamports(record[5]),
			Kind:      record[6],
			Message:   record[7],
		})
	}
	return entries, nil
}

func parseSOLToLamports(value string) uint64 {
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || amount < 0 {
		return 0
	}
	return uint64(amount*sol.LamportsPerSol + 0.5)
}
