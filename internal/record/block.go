package record

import "time"

// Block is satisfied by every chain's block record via the methods promoted
// from BlockBase. The indexer driver and storage manager operate on this
// interface so they never switch on chain type themselves.
type Block interface {
	GetBlockNumber() uint64
	GetBlockHash() string
	GetBlockDate() time.Time
	GetBlockTime() time.Time
	TransactionHashes() []string
}

// EthereumBlock adds the Shapella/Dencun-era fields: withdrawals and blob
// gas accounting.
type EthereumBlock struct {
	BlockBase
	BlobGasUsed           *uint64      `db:"blob_gas_used"`
	ExcessBlobGas         *uint64      `db:"excess_blob_gas"`
	ParentBeaconBlockRoot *string      `db:"parent_beacon_block_root"`
	Withdrawals           []Withdrawal `db:"withdrawals"`
	WithdrawalsRoot       *string      `db:"withdrawals_root"`
}

// ArbitrumBlock adds the Arbitrum-specific L1 anchoring fields. L1BlockNumber
// is required for a block to be considered complete (spec §4.5 gating) and
// is therefore non-pointer.
type ArbitrumBlock struct {
	BlockBase
	L1BlockNumber uint64  `db:"l1_block_number"`
	SendCount     *uint64 `db:"send_count"`
	SendRoot      *string `db:"send_root"`
}

// ZKsyncBlock covers both the zksync and cronos-zkevm chain types, which
// share the same L1-batch wire format.
type ZKsyncBlock struct {
	BlockBase
	L1BatchNumber *uint64    `db:"l1_batch_number"`
	L1BatchTime   *time.Time `db:"l1_batch_time"`
	SealFields    []string   `db:"seal_fields"`
}
