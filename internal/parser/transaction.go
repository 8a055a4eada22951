package parser

import (
	"time"

	"github.com/lgingerich/evm-indexer/internal/record"
)

// parseBaseTransaction merges a block-embedded transaction object with its
// receipt into the fields every chain's transaction record shares. bt and
// bd are the enclosing block's time/date, threaded through by the caller
// (block objects over JSON-RPC don't repeat their own timestamp per tx).
func parseBaseTransaction(raw *record.RawTransaction, receipt *record.RawReceipt, bt time.Time, bd time.Time) (record.TransactionBase, error) {
	blockNumber, err := decodeHexUint64(raw.BlockNumber)
	if err != nil {
		return record.TransactionBase{}, err
	}
	txIndex, err := decodeHexUint64(raw.TransactionIndex)
	if err != nil {
		return record.TransactionBase{}, err
	}
	nonce, err := decodeHexUint64(raw.Nonce)
	if err != nil {
		return record.TransactionBase{}, err
	}
	gas, err := decodeHexUint64(raw.Gas)
	if err != nil {
		return record.TransactionBase{}, err
	}
	gasPrice, err := decodeHexUint64(raw.GasPrice)
	if err != nil {
		return record.TransactionBase{}, err
	}
	value, err := decodeHexBigString(raw.Value)
	if err != nil {
		return record.TransactionBase{}, err
	}
	chainID, err := decodeOptionalHexUint64(raw.ChainID)
	if err != nil {
		return record.TransactionBase{}, err
	}
	v, err := decodeOptionalHexUint64(raw.V)
	if err != nil {
		return record.TransactionBase{}, err
	}

	var txType uint8
	if raw.Type != nil {
		t, err := decodeHexUint64(*raw.Type)
		if err != nil {
			return record.TransactionBase{}, err
		}
		txType = uint8(t)
	}

	status, err := decodeHexUint64(orZero(receipt.Status))
	if err != nil {
		return record.TransactionBase{}, err
	}
	cumulativeGasUsed, err := decodeHexUint64(receipt.CumulativeGasUsed)
	if err != nil {
		return record.TransactionBase{}, err
	}
	effectiveGasPrice, err := decodeHexUint64(receipt.EffectiveGasPrice)
	if err != nil {
		return record.TransactionBase{}, err
	}
	receiptGasUsed, err := decodeHexUint64(receipt.GasUsed)
	if err != nil {
		return record.TransactionBase{}, err
	}

	return record.TransactionBase{
		TransactionHash:  normalizeHexString(raw.Hash),
		BlockHash:        normalizeHexString(raw.BlockHash),
		BlockNumber:      blockNumber,
		BlockTime:        bt,
		BlockDate:        bd,
		TransactionIndex: uint32(txIndex),
		FromAddress:      normalizeHexString(raw.From),
		ToAddress:        normalizeOptionalHexString(raw.To),
		Value:            value,
		Nonce:            nonce,
		Gas:              gas,
		GasPrice:         gasPrice,
		Input:            normalizeHexString(raw.Input),
		Type:             txType,
		ChainID:          chainID,
		R:                normalizeOptionalHexString(raw.R),
		S:                normalizeOptionalHexString(raw.S),
		V:                v,

		Status:            status,
		CumulativeGasUsed: cumulativeGasUsed,
		EffectiveGasPrice: effectiveGasPrice,
		GasUsed:           receiptGasUsed,
		LogsBloom:         normalizeHexString(receipt.LogsBloom),
		ContractAddress:   normalizeOptionalHexString(receipt.ContractAddress),
	}, nil
}

// orZero returns "0x0" for an absent optional hex field, matching a node
// that omits `status` on pre-Byzantium-style replies it otherwise never
// sends for the chains this indexer targets; present for defensiveness.
func orZero(s *string) string {
	if s == nil {
		return "0x0"
	}
	return *s
}

func ParseEthereumTransaction(raw *record.RawTransaction, receipt *record.RawReceipt, bt, bd time.Time) (*record.EthereumTransaction, error) {
	base, err := parseBaseTransaction(raw, receipt, bt, bd)
	if err != nil {
		return nil, err
	}
	maxFeePerBlobGas, err := decodeOptionalHexUint64(raw.MaxFeePerBlobGas)
	if err != nil {
		return nil, err
	}
	maxFeePerGas, err := decodeOptionalHexUint64(raw.MaxFeePerGas)
	if err != nil {
		return nil, err
	}
	maxPriorityFeePerGas, err := decodeOptionalHexUint64(raw.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}
	yParity, err := decodeOptionalHexUint64(raw.YParity)
	if err != nil {
		return nil, err
	}

	accessList := make([]record.AccessListEntry, 0, len(raw.AccessList))
	for _, e := range raw.AccessList {
		accessList = append(accessList, record.AccessListEntry{
			Address:     normalizeHexString(e.Address),
			StorageKeys: normalizeHexStrings(e.StorageKeys),
		})
	}

	return &record.EthereumTransaction{
		TransactionBase:      base,
		AccessList:           accessList,
		BlobVersionedHashes:  normalizeHexStrings(raw.BlobVersionedHashes),
		MaxFeePerBlobGas:     maxFeePerBlobGas,
		MaxFeePerGas:         maxFeePerGas,
		MaxPriorityFeePerGas: maxPriorityFeePerGas,
		YParity:              yParity,
	}, nil
}

func ParseArbitrumTransaction(raw *record.RawTransaction, receipt *record.RawReceipt, bt, bd time.Time) (*record.ArbitrumTransaction, error) {
	base, err := parseBaseTransaction(raw, receipt, bt, bd)
	if err != nil {
		return nil, err
	}
	blobGasUsed, err := decodeOptionalHexUint64(receipt.BlobGasUsed)
	if err != nil {
		return nil, err
	}
	l1BlockNumber, err := decodeOptionalHexUint64(receipt.L1BlockNumber)
	if err != nil {
		return nil, err
	}
	gasUsedForL1, err := decodeOptionalHexUint64(receipt.GasUsedForL1)
	if err != nil {
		return nil, err
	}

	return &record.ArbitrumTransaction{
		TransactionBase: base,
		BlobGasUsed:     blobGasUsed,
		L1BlockNumber:   l1BlockNumber,
		GasUsedForL1:    gasUsedForL1,
	}, nil
}

func ParseZKsyncTransaction(raw *record.RawTransaction, receipt *record.RawReceipt, bt, bd time.Time) (*record.ZKsyncTransaction, error) {
	base, err := parseBaseTransaction(raw, receipt, bt, bd)
	if err != nil {
		return nil, err
	}
	l1BatchNumber, err := decodeOptionalHexUint64(raw.L1BatchNumber)
	if err != nil {
		return nil, err
	}
	l1BatchTxIndex, err := decodeOptionalHexUint64(raw.L1BatchTxIndex)
	if err != nil {
		return nil, err
	}
	maxFeePerGas, err := decodeRequiredHexUint64(raw.MaxFeePerGas, "maxFeePerGas")
	if err != nil {
		return nil, err
	}
	maxPriorityFeePerGas, err := decodeRequiredHexUint64(raw.MaxPriorityFeePerGas, "maxPriorityFeePerGas")
	if err != nil {
		return nil, err
	}

	root := ""
	if receipt.Root != nil {
		root = normalizeHexString(*receipt.Root)
	}

	return &record.ZKsyncTransaction{
		TransactionBase:      base,
		L1BatchNumber:        l1BatchNumber,
		L1BatchTxIndex:       l1BatchTxIndex,
		MaxFeePerGas:         maxFeePerGas,
		MaxPriorityFeePerGas: maxPriorityFeePerGas,
		Root:                 root,
	}, nil
}
