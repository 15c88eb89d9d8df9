package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/leviathan/internal/domain"
)

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "없는_파일.json"))

	st, err := store.Load()
	require.NoError(t, err, "파일이 없는 것은 정상 상태입니다")
	assert.Equal(t, Flat(), st)
	assert.False(t, st.InPosition)
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "trade_state.json"))

	side := domain.LongPosition
	orderID := "1234567890"
	want := TradeState{
		InPosition:   true,
		PositionSide: &side,
		EntryPrice:   45000.5,
		Quantity:     0.666,
		OrderID:      &orderID,
	}

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.InPosition, got.InPosition)
	require.NotNil(t, got.PositionSide)
	assert.Equal(t, side, *got.PositionSide)
	assert.Equal(t, want.EntryPrice, got.EntryPrice)
	assert.Equal(t, want.Quantity, got.Quantity)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, orderID, *got.OrderID)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "trade_state.json"))

	side := domain.ShortPosition
	require.NoError(t, store.Save(TradeState{InPosition: true, PositionSide: &side, Quantity: 1.5}))
	require.NoError(t, store.Clear())

	got, err := store.Load()
	require.NoError(t, err)
	assert.False(t, got.InPosition)
	assert.Nil(t, got.PositionSide)
	assert.Zero(t, got.Quantity)
}

// 쓰기는 전체 교체이므로 이전 레코드의 필드가 남아 있으면 안 됩니다
func TestStoreSaveReplacesWholeRecord(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "trade_state.json"))

	side := domain.LongPosition
	orderID := "abc"
	require.NoError(t, store.Save(TradeState{
		InPosition: true, PositionSide: &side, EntryPrice: 45000, Quantity: 1, OrderID: &orderID,
	}))

	require.NoError(t, store.Save(Flat()))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Flat(), got)
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{잘린 JSON"), 0o600))

	_, err := NewStore(path).Load()
	assert.Error(t, err, "손상된 파일은 기본값으로 덮지 말고 에러를 올려야 합니다")
}

// 원자적 쓰기가 임시 파일을 남기지 않아야 합니다
func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "trade_state.json"))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(Flat()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "상태 파일 외의 파일이 남아 있습니다")
}
