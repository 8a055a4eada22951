package record

// Log is satisfied by every chain's log record via the methods promoted
// from LogBase.
type Log interface {
	GetBlockNumber() uint64
	GetTransactionHash() string
}

// EthereumLog and ArbitrumLog carry no fields beyond the base — both chains
// expose identical log shapes over JSON-RPC.
type EthereumLog struct {
	LogBase
}

type ArbitrumLog struct {
	LogBase
}

// ZKsyncLog adds the L1-batch and internal log-ordering fields.
type ZKsyncLog struct {
	LogBase
	L1BatchNumber        *uint64 `db:"l1_batch_number"`
	LogType              *string `db:"log_type"`
	TransactionLogIndex  *uint64 `db:"transaction_log_index"`
}
