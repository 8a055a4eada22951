package parser

import (
	"fmt"
	"time"

	"github.com/lgingerich/evm-indexer/internal/record"
)

func blockTime(raw *record.RawBlock) (time.Time, error) {
	ts, err := decodeHexUint64(raw.Timestamp)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseBaseBlock extracts the fields every chain's block record shares.
func parseBaseBlock(raw *record.RawBlock) (record.BlockBase, error) {
	number, err := decodeHexUint64(raw.Number)
	if err != nil {
		return record.BlockBase{}, err
	}
	bt, err := blockTime(raw)
	if err != nil {
		return record.BlockBase{}, err
	}
	gasLimit, err := decodeHexUint64(raw.GasLimit)
	if err != nil {
		return record.BlockBase{}, err
	}
	gasUsed, err := decodeHexUint64(raw.GasUsed)
	if err != nil {
		return record.BlockBase{}, err
	}
	size, err := decodeHexUint64(raw.Size)
	if err != nil {
		return record.BlockBase{}, err
	}
	baseFee, err := decodeOptionalHexUint64(raw.BaseFeePerGas)
	if err != nil {
		return record.BlockBase{}, err
	}
	difficulty, err := decodeHexDecimal(raw.Difficulty)
	if err != nil {
		return record.BlockBase{}, err
	}
	totalDifficulty, err := decodeHexDecimal(raw.TotalDifficulty)
	if err != nil {
		return record.BlockBase{}, err
	}

	txHashes := make([]string, len(raw.Transactions))
	for i, tx := range raw.Transactions {
		txHashes[i] = normalizeHexString(tx.Hash)
	}

	return record.BlockBase{
		BlockNumber:      number,
		BlockHash:        normalizeHexString(raw.Hash),
		ParentHash:       normalizeHexString(raw.ParentHash),
		BlockTime:        bt,
		BlockDate:        dateOnly(bt),
		Miner:            normalizeHexString(raw.Miner),
		Nonce:            normalizeHexString(raw.Nonce),
		Size:             size,
		GasLimit:         gasLimit,
		GasUsed:          gasUsed,
		BaseFeePerGas:    baseFee,
		Difficulty:       difficulty,
		TotalDifficulty:  totalDifficulty,
		ExtraData:        normalizeOptionalHexString(raw.ExtraData),
		LogsBloom:        normalizeHexString(raw.LogsBloom),
		MixHash:          normalizeHexString(raw.MixHash),
		ReceiptsRoot:     normalizeHexString(raw.ReceiptsRoot),
		StateRoot:        normalizeHexString(raw.StateRoot),
		Sha3Uncles:       normalizeHexString(raw.Sha3Uncles),
		TransactionsRoot: normalizeHexString(raw.TransactionsRoot),
		Transactions:     txHashes,
		Uncles:           normalizeHexStrings(raw.Uncles),
	}, nil
}

// ParseEthereumBlock builds an EthereumBlock, decoding Shapella withdrawals
// and Dencun blob-gas accounting when present.
func ParseEthereumBlock(raw *record.RawBlock) (*record.EthereumBlock, error) {
	base, err := parseBaseBlock(raw)
	if err != nil {
		return nil, err
	}
	blobGasUsed, err := decodeOptionalHexUint64(raw.BlobGasUsed)
	if err != nil {
		return nil, err
	}
	excessBlobGas, err := decodeOptionalHexUint64(raw.ExcessBlobGas)
	if err != nil {
		return nil, err
	}

	withdrawals := make([]record.Withdrawal, 0, len(raw.Withdrawals))
	for _, w := range raw.Withdrawals {
		amount, err := decodeHexUint64(w.Amount)
		if err != nil {
			return nil, err
		}
		index, err := decodeHexUint64(w.Index)
		if err != nil {
			return nil, err
		}
		validatorIndex, err := decodeHexUint64(w.ValidatorIndex)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, record.Withdrawal{
			Address:        normalizeHexString(w.Address),
			Amount:         amount,
			Index:          index,
			ValidatorIndex: validatorIndex,
		})
	}

	return &record.EthereumBlock{
		BlockBase:             base,
		BlobGasUsed:           blobGasUsed,
		ExcessBlobGas:         excessBlobGas,
		ParentBeaconBlockRoot: normalizeOptionalHexString(raw.ParentBeaconBlockRoot),
		Withdrawals:           withdrawals,
		WithdrawalsRoot:       normalizeOptionalHexString(raw.WithdrawalsRoot),
	}, nil
}

// ParseArbitrumBlock builds an ArbitrumBlock. l1BlockNumber is required —
// the driver's gating step (spec §4.5) never calls this until it's present,
// so its absence here is a structural failure, not an optional field.
func ParseArbitrumBlock(raw *record.RawBlock) (*record.ArbitrumBlock, error) {
	base, err := parseBaseBlock(raw)
	if err != nil {
		return nil, err
	}
	if raw.L1BlockNumber == nil {
		return nil, fmt.Errorf("parser: %w: arbitrum block %d missing l1BlockNumber", ErrStructural, base.BlockNumber)
	}
	l1BlockNumber, err := decodeHexUint64(*raw.L1BlockNumber)
	if err != nil {
		return nil, err
	}
	sendCount, err := decodeOptionalHexUint64(raw.SendCount)
	if err != nil {
		return nil, err
	}

	return &record.ArbitrumBlock{
		BlockBase:     base,
		L1BlockNumber: l1BlockNumber,
		SendCount:     sendCount,
		SendRoot:      normalizeOptionalHexString(raw.SendRoot),
	}, nil
}

// ParseZKsyncBlock builds a ZKsyncBlock, shared by both the zksync and
// cronos-zkevm chain types.
func ParseZKsyncBlock(raw *record.RawBlock) (*record.ZKsyncBlock, error) {
	base, err := parseBaseBlock(raw)
	if err != nil {
		return nil, err
	}
	l1BatchNumber, err := decodeOptionalHexUint64(raw.L1BatchNumber)
	if err != nil {
		return nil, err
	}
	var l1BatchTime *time.Time
	if raw.L1BatchTimestamp != nil {
		ts, err := decodeHexUint64(*raw.L1BatchTimestamp)
		if err != nil {
			return nil, err
		}
		t := time.Unix(int64(ts), 0).UTC()
		l1BatchTime = &t
	}

	return &record.ZKsyncBlock{
		BlockBase:     base,
		L1BatchNumber: l1BatchNumber,
		L1BatchTime:   l1BatchTime,
		SealFields:    normalizeHexStrings(raw.SealFields),
	}, nil
}
