// Package record defines the typed, chain-specific block/transaction/log
// model that internal/parser produces and internal/storage persists. Every
// record kind has a base struct carrying the fields common to all chains
// plus one extension struct per chain family, mirroring the
// BaseBlock/EthereumBlock/ArbitrumBlock/ZKsyncBlock hierarchy the indexer
// was modeled on.
package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal is a single validator withdrawal embedded in an Ethereum
// post-Shapella block.
type Withdrawal struct {
	Address        string `db:"address"`
	Amount         uint64 `db:"amount"`
	Index          uint64 `db:"index"`
	ValidatorIndex uint64 `db:"validator_index"`
}

// AccessListEntry is one entry of an EIP-2930 access list.
type AccessListEntry struct {
	Address     string   `db:"address"`
	StorageKeys []string `db:"storage_keys"`
}

// BlockBase holds the fields common to every chain's block record. All
// hex-bytes fields are lowercase 0x-prefixed strings; difficulty and
// total_difficulty are arbitrary-precision decimals so Ethereum mainnet's
// total_difficulty (which overflows uint64) round-trips exactly.
type BlockBase struct {
	BlockNumber      uint64          `db:"block_number"`
	BlockHash        string          `db:"block_hash"`
	ParentHash       string          `db:"parent_hash"`
	BlockTime        time.Time       `db:"block_time"`
	BlockDate        time.Time       `db:"block_date"`
	Miner            string          `db:"miner"`
	Nonce            string          `db:"nonce"`
	Size             uint64          `db:"size"`
	GasLimit         uint64          `db:"gas_limit"`
	GasUsed          uint64          `db:"gas_used"`
	BaseFeePerGas    *uint64         `db:"base_fee_per_gas"`
	Difficulty       decimal.Decimal `db:"difficulty"`
	TotalDifficulty  decimal.Decimal `db:"total_difficulty"`
	ExtraData        *string         `db:"extra_data"`
	LogsBloom        string          `db:"logs_bloom"`
	MixHash          string          `db:"mix_hash"`
	ReceiptsRoot     string          `db:"receipts_root"`
	StateRoot        string          `db:"state_root"`
	Sha3Uncles       string          `db:"sha3_uncles"`
	TransactionsRoot string          `db:"transactions_root"`
	Transactions     []string        `db:"transactions"`
	Uncles           []string        `db:"uncles"`
}

func (b BlockBase) GetBlockNumber() uint64   { return b.BlockNumber }
func (b BlockBase) GetBlockHash() string     { return b.BlockHash }
func (b BlockBase) GetBlockDate() time.Time  { return b.BlockDate }
func (b BlockBase) GetBlockTime() time.Time  { return b.BlockTime }
func (b BlockBase) TransactionHashes() []string { return b.Transactions }

// TransactionBase holds the fields common to every chain's transaction
// record, merged from both the block's embedded transaction object and its
// receipt in a single parser pass.
type TransactionBase struct {
	TransactionHash  string          `db:"transaction_hash"`
	BlockHash        string          `db:"block_hash"`
	BlockNumber      uint64          `db:"block_number"`
	BlockTime        time.Time       `db:"block_time"`
	BlockDate        time.Time       `db:"block_date"`
	TransactionIndex uint32          `db:"transaction_index"`
	FromAddress      string          `db:"from_address"`
	ToAddress        *string         `db:"to_address"`
	Value            string          `db:"value"`
	Nonce            uint64          `db:"nonce"`
	Gas              uint64          `db:"gas"`
	GasPrice         uint64          `db:"gas_price"`
	Input            string          `db:"input"`
	Type             uint8           `db:"type"`
	ChainID          *uint64         `db:"chain_id"`
	R                *string         `db:"r"`
	S                *string         `db:"s"`
	V                *uint64         `db:"v"`

	// Receipt-derived fields.
	Status            uint64  `db:"status"`
	CumulativeGasUsed uint64  `db:"cumulative_gas_used"`
	EffectiveGasPrice uint64  `db:"effective_gas_price"`
	GasUsed           uint64  `db:"gas_used"`
	LogsBloom         string  `db:"logs_bloom"`
	ContractAddress   *string `db:"contract_address"`
}

func (t TransactionBase) GetTransactionHash() string { return t.TransactionHash }
func (t TransactionBase) GetBlockNumber() uint64     { return t.BlockNumber }
func (t TransactionBase) GetBlockHash() string       { return t.BlockHash }

// LogBase holds the fields common to every chain's log record.
type LogBase struct {
	Address          string    `db:"address"`
	BlockHash        string    `db:"block_hash"`
	BlockNumber      uint64    `db:"block_number"`
	BlockTime        time.Time `db:"block_time"`
	BlockDate        time.Time `db:"block_date"`
	Data             string    `db:"data"`
	LogIndex         uint32    `db:"log_index"`
	Removed          bool      `db:"removed"`
	Topics           []string  `db:"topics"`
	TransactionHash  string    `db:"transaction_hash"`
	TransactionIndex uint32    `db:"transaction_index"`
}

func (l LogBase) GetBlockNumber() uint64     { return l.BlockNumber }
func (l LogBase) GetTransactionHash() string { return l.TransactionHash }
