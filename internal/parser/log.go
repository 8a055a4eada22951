package parser

import (
	"time"

	"github.com/lgingerich/evm-indexer/internal/record"
)

func parseBaseLog(raw *record.RawLog, bt, bd time.Time) (record.LogBase, error) {
	blockNumber, err := decodeHexUint64(raw.BlockNumber)
	if err != nil {
		return record.LogBase{}, err
	}
	logIndex, err := decodeHexUint64(raw.LogIndex)
	if err != nil {
		return record.LogBase{}, err
	}
	txIndex, err := decodeHexUint64(raw.TransactionIndex)
	if err != nil {
		return record.LogBase{}, err
	}

	return record.LogBase{
		Address:          normalizeHexString(raw.Address),
		BlockHash:        normalizeHexString(raw.BlockHash),
		BlockNumber:      blockNumber,
		BlockTime:        bt,
		BlockDate:        bd,
		Data:             normalizeHexString(raw.Data),
		LogIndex:         uint32(logIndex),
		Removed:          raw.Removed,
		Topics:           normalizeHexStrings(raw.Topics),
		TransactionHash:  normalizeHexString(raw.TransactionHash),
		TransactionIndex: uint32(txIndex),
	}, nil
}

func ParseEthereumLog(raw *record.RawLog, bt, bd time.Time) (*record.EthereumLog, error) {
	base, err := parseBaseLog(raw, bt, bd)
	if err != nil {
		return nil, err
	}
	return &record.EthereumLog{LogBase: base}, nil
}

func ParseArbitrumLog(raw *record.RawLog, bt, bd time.Time) (*record.ArbitrumLog, error) {
	base, err := parseBaseLog(raw, bt, bd)
	if err != nil {
		return nil, err
	}
	return &record.ArbitrumLog{LogBase: base}, nil
}

func ParseZKsyncLog(raw *record.RawLog, bt, bd time.Time) (*record.ZKsyncLog, error) {
	base, err := parseBaseLog(raw, bt, bd)
	if err != nil {
		return nil, err
	}
	l1BatchNumber, err := decodeOptionalHexUint64(raw.L1BatchNumber)
	if err != nil {
		return nil, err
	}
	transactionLogIndex, err := decodeOptionalHexUint64(raw.TransactionLogIndex)
	if err != nil {
		return nil, err
	}

	return &record.ZKsyncLog{
		LogBase:             base,
		L1BatchNumber:       l1BatchNumber,
		LogType:             raw.LogType,
		TransactionLogIndex: transactionLogIndex,
	}, nil
}
