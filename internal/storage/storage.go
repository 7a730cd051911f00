package storage

import "swapScope/internal/model"

// Storage defines a sink for submitted transfer records.
type Storage interface {
	PutTxBatch(records []model.TxRecord) error
}

// PoolSnapshotSink stores pool listings fetched from the provider.
type PoolSnapshotSink interface {
	PutPoolBatch(pools []model.PoolDetail) error
}
