package record

// Raw* types mirror the literal JSON-RPC wire shapes of eth_getBlockByNumber
// (full transactions), eth_getTransactionReceipt, and the logs embedded in a
// receipt. Every field that arrives as a hex string on the wire stays a
// string here; internal/parser is the only place that interprets them into
// the typed record model. Optional fields are pointers so an absent or
// JSON-null field (both decode to nil) is distinguishable from a
// present-but-zero value.
type RawBlock struct {
	BaseFeePerGas   *string           `json:"baseFeePerGas"`
	Difficulty      string            `json:"difficulty"`
	ExtraData       *string           `json:"extraData"`
	GasLimit        string            `json:"gasLimit"`
	GasUsed         string            `json:"gasUsed"`
	Hash            string            `json:"hash"`
	LogsBloom       string            `json:"logsBloom"`
	Miner           string            `json:"miner"`
	MixHash         string            `json:"mixHash"`
	Nonce           string            `json:"nonce"`
	Number          string            `json:"number"`
	ParentHash      string            `json:"parentHash"`
	ReceiptsRoot    string            `json:"receiptsRoot"`
	Sha3Uncles      string            `json:"sha3Uncles"`
	Size            string            `json:"size"`
	StateRoot       string            `json:"stateRoot"`
	Timestamp       string            `json:"timestamp"`
	TotalDifficulty string            `json:"totalDifficulty"`
	Transactions    []RawTransaction  `json:"transactions"`
	TransactionsRoot string           `json:"transactionsRoot"`
	Uncles          []string          `json:"uncles"`

	// Ethereum (Shapella/Dencun).
	BlobGasUsed           *string          `json:"blobGasUsed"`
	ExcessBlobGas         *string          `json:"excessBlobGas"`
	ParentBeaconBlockRoot *string          `json:"parentBeaconBlockRoot"`
	Withdrawals           []RawWithdrawal  `json:"withdrawals"`
	WithdrawalsRoot       *string          `json:"withdrawalsRoot"`

	// Arbitrum.
	L1BlockNumber *string `json:"l1BlockNumber"`
	SendCount     *string `json:"sendCount"`
	SendRoot      *string `json:"sendRoot"`

	// ZKsync family.
	L1BatchNumber    *string  `json:"l1BatchNumber"`
	L1BatchTimestamp *string  `json:"l1BatchTimestamp"`
	SealFields       []string `json:"sealFields"`
}

type RawWithdrawal struct {
	Address        string `json:"address"`
	Amount         string `json:"amount"`
	Index          string `json:"index"`
	ValidatorIndex string `json:"validatorIndex"`
}

// RawTransaction mirrors the transaction object embedded in a block's
// "transactions" array (full-transactions=true). It carries no timestamp —
// the enclosing block's timestamp is threaded through by the caller.
type RawTransaction struct {
	BlockHash        string  `json:"blockHash"`
	BlockNumber      string  `json:"blockNumber"`
	ChainID          *string `json:"chainId"`
	From             string  `json:"from"`
	Gas              string  `json:"gas"`
	GasPrice         string  `json:"gasPrice"`
	Hash             string  `json:"hash"`
	Input            string  `json:"input"`
	Nonce            string  `json:"nonce"`
	R                *string `json:"r"`
	S                *string `json:"s"`
	To               *string `json:"to"`
	TransactionIndex string  `json:"transactionIndex"`
	Type             *string `json:"type"`
	V                *string `json:"v"`
	Value            string  `json:"value"`

	// Ethereum.
	AccessList           []RawAccessListEntry `json:"accessList"`
	BlobVersionedHashes  []string              `json:"blobVersionedHashes"`
	MaxFeePerBlobGas     *string               `json:"maxFeePerBlobGas"`
	MaxFeePerGas         *string               `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *string               `json:"maxPriorityFeePerGas"`
	YParity              *string               `json:"yParity"`

	// ZKsync family.
	L1BatchNumber  *string `json:"l1BatchNumber"`
	L1BatchTxIndex *string `json:"l1BatchTxIndex"`
}

type RawAccessListEntry struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// RawReceipt mirrors eth_getTransactionReceipt's result, including its
// embedded logs.
type RawReceipt struct {
	BlockHash         string   `json:"blockHash"`
	BlockNumber       string   `json:"blockNumber"`
	ContractAddress   *string  `json:"contractAddress"`
	CumulativeGasUsed string   `json:"cumulativeGasUsed"`
	EffectiveGasPrice string   `json:"effectiveGasPrice"`
	From              string   `json:"from"`
	GasUsed           string   `json:"gasUsed"`
	LogsBloom         string   `json:"logsBloom"`
	Logs              []RawLog `json:"logs"`
	Status            *string  `json:"status"`
	To                *string  `json:"to"`
	TransactionHash   string   `json:"transactionHash"`
	TransactionIndex  string   `json:"transactionIndex"`
	Type              *string  `json:"type"`

	// Arbitrum.
	BlobGasUsed   *string `json:"blobGasUsed"`
	L1BlockNumber *string `json:"l1BlockNumber"`
	GasUsedForL1  *string `json:"gasUsedForL1"`

	// ZKsync.
	Root *string `json:"root"`
}

type RawLog struct {
	Address          string   `json:"address"`
	BlockHash        string   `json:"blockHash"`
	BlockNumber      string   `json:"blockNumber"`
	Data             string   `json:"data"`
	LogIndex         string   `json:"logIndex"`
	Removed          bool     `json:"removed"`
	Topics           []string `json:"topics"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`

	// ZKsync.
	L1BatchNumber       *string `json:"l1BatchNumber"`
	LogType             *string `json:"logType"`
	TransactionLogIndex *string `json:"transactionLogIndex"`
}
