package record

// Transaction is satisfied by every chain's transaction record via the
// methods promoted from TransactionBase.
type Transaction interface {
	GetTransactionHash() string
	GetBlockNumber() uint64
	GetBlockHash() string
}

// EthereumTransaction adds EIP-2930/1559/4844 fields.
type EthereumTransaction struct {
	TransactionBase
	AccessList            []AccessListEntry `db:"access_list"`
	BlobVersionedHashes   []string          `db:"blob_versioned_hashes"`
	MaxFeePerBlobGas      *uint64           `db:"max_fee_per_blob_gas"`
	MaxFeePerGas          *uint64           `db:"max_fee_per_gas"`
	MaxPriorityFeePerGas  *uint64           `db:"max_priority_fee_per_gas"`
	YParity               *uint64           `db:"y_parity"`
}

// ArbitrumTransaction adds the L1-data-fee receipt fields.
type ArbitrumTransaction struct {
	TransactionBase
	BlobGasUsed    *uint64 `db:"blob_gas_used"`
	L1BlockNumber  *uint64 `db:"l1_block_number"`
	GasUsedForL1   *uint64 `db:"gas_used_for_l1"`
}

// ZKsyncTransaction adds the L1-batch anchoring fields shared with
// ZKsyncBlock, plus the zkSync-specific EIP-1559 fields and receipt root.
type ZKsyncTransaction struct {
	TransactionBase
	L1BatchNumber        *uint64 `db:"l1_batch_number"`
	L1BatchTxIndex       *uint64 `db:"l1_batch_tx_index"`
	MaxFeePerGas         uint64  `db:"max_fee_per_gas"`
	MaxPriorityFeePerGas uint64  `db:"max_priority_fee_per_gas"`
	Root                 string  `db:"root"`
}
