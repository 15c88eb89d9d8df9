package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/leviathan/internal/domain"
)

func readLines(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "각 줄은 독립적인 JSON이어야 합니다")
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestWriterAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	plan := &domain.SizedOrderPlan{
		Symbol:        "BTCUSDT",
		Side:          domain.SideBuy,
		EntryPrice:    45000,
		StopLoss:      44250,
		TakeProfit:    46250,
		Quantity:      0.666,
		NotionalUSD:   29970,
		ClientOrderID: "lv-abc",
	}

	require.NoError(t, w.Append(Entry{
		Decision: domain.DecisionLive,
		Symbol:   "BTCUSDT",
		Side:     domain.SideBuy,
		Plan:     plan,
		OrderID:  "12345",
	}))
	require.NoError(t, w.Append(Entry{
		Decision: domain.DecisionBlocked,
		Symbol:   "BTCUSDT",
		Side:     domain.SideSell,
		Reason:   "Low confidence",
	}))

	entries := readLines(t, path)
	require.Len(t, entries, 2)

	assert.NotEmpty(t, entries[0].ID, "ID는 자동으로 채워져야 합니다")
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, domain.DecisionLive, entries[0].Decision)
	require.NotNil(t, entries[0].Plan)
	assert.Equal(t, 0.666, entries[0].Plan.Quantity)

	assert.Equal(t, domain.DecisionBlocked, entries[1].Decision)
	assert.Equal(t, "Low confidence", entries[1].Reason)
	assert.Nil(t, entries[1].Plan, "계획이 없는 거부는 plan 필드를 생략해야 합니다")
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

// 다시 열어 기록하면 기존 내용 뒤에 추가되어야 합니다
func TestWriterAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjsonl")

	w1, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w1.Append(Entry{Decision: domain.DecisionPaper, Symbol: "BTCUSDT", Side: domain.SideBuy}))
	require.NoError(t, w1.Close())

	w2, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w2.Append(Entry{Decision: domain.DecisionPaper, Symbol: "ETHUSDT", Side: domain.SideSell}))
	require.NoError(t, w2.Close())

	entries := readLines(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "BTCUSDT", entries[0].Symbol)
	assert.Equal(t, "ETHUSDT", entries[1].Symbol)
}
