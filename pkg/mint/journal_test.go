package mint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordAndSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	journal, err := NewJournal(dir)
	require.NoError(t, err)

	october := time.Date(2021, 10, 18, 14, 38, 10, 0, time.UTC)
	november := time.Date(2021, 11, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, journal.Record(JournalEntry{
		Timestamp: october,
		Outcome:   OutcomeSucceeded,
		Wallet:    "wallet",
		Mint:      "mint-1",
		Signature: "sig-1",
		Fee:       10_000,
	}))
	require.NoError(t, journal.Record(JournalEntry{
		Timestamp: october.Add(time.Minute),
		Outcome:   OutcomeFailed,
		Wallet:    "wallet",
		Kind:      KindSoldOut.String(),
		Message:   "SOLD OUT!",
	}))
	require.NoError(t, journal.Record(JournalEntry{
		Timestamp: november,
		Outcome:   OutcomeSucceeded,
		Wallet:    "wallet",
		Mint:      "mint-2",
		Fee:       5_000,
	}))

	_, err = os.Stat(filepath.Join(dir, "mints_2021-10.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "mints_2021-11.csv"))
	require.NoError(t, err)

	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "mint-1", entries[0].Mint)
	assert.Equal(t, uint64(10_000), entries[0].Fee)
	assert.Equal(t, "SOLD OUT!", entries[1].Message)
	assert.True(t, november.Equal(entries[2].Timestamp))

	summary, err := journal.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, uint64(15_000), summary.TotalFees)
	assert.True(t, november.Equal(summary.LastMint))
}

func TestJournalDefaultsTimestamp(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	fixed := time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)
	journal.now = func() time.Time { return fixed }

	require.NoError(t, journal.Record(JournalEntry{Outcome: OutcomeFailed}))

	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, fixed.Equal(entries[0].Timestamp))
}

func TestParseSOLToLamports(t *testing.T) {
	assert.Equal(t, uint64(5_000), parseSOLToLamports("0.000005000"))
	assert.Equal(t, uint64(1_000_000_000), parseSOLToLamports("1.000000000"))
	assert.Equal(t, uint64(0), parseSOLToLamports("n/a"))
}
