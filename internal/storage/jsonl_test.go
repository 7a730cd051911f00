package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/model"
)

func TestJsonlJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "txs.jsonl")
	store := NewJsonlStorage(path)

	first := model.TxRecord{ID: "1", Kind: model.TxKindAdd, Chain: "THOR", TxID: "A", Memo: "ADD:BTC.BTC"}
	second := model.TxRecord{ID: "2", Kind: model.TxKindAdd, Chain: "BTC", TxID: "B", Memo: "ADD:BTC.BTC"}

	require.NoError(t, store.PutTxBatch([]model.TxRecord{first}))
	require.NoError(t, store.PutTxBatch(nil))
	require.NoError(t, store.PutTxBatch([]model.TxRecord{second}))

	got, err := ReadTxRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []model.TxRecord{first, second}, got)
}

func TestReadPoolSnapshotKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutPoolBatch([]model.PoolDetail{
		{Asset: "BTC.BTC", RuneDepth: "1", AssetDepth: "1"},
		{Asset: "ETH.ETH", RuneDepth: "5", AssetDepth: "5"},
	}))
	require.NoError(t, store.PutPoolBatch([]model.PoolDetail{
		{Asset: "BTC.BTC", RuneDepth: "2", AssetDepth: "3"},
	}))

	pools, err := ReadPoolSnapshot(path)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, "BTC.BTC", pools[0].Asset)
	assert.Equal(t, "2", pools[0].RuneDepth)
	assert.Equal(t, "ETH.ETH", pools[1].Asset)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadTxRecords(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
