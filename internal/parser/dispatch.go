package parser

import (
	"fmt"
	"time"

	"github.com/lgingerich/evm-indexer/internal/chain"
	"github.com/lgingerich/evm-indexer/internal/record"
)

// blockParsers and its transaction/log siblings are the static (chain
// family → parser function) dispatch tables (spec §9 design note): a
// closed set known at compile time, not a runtime registry built up by
// init()s, so adding a chain family is a one-line addition here.
var blockParsers = map[chain.Family]func(*record.RawBlock) (record.Block, error){
	chain.FamilyEthereum: func(r *record.RawBlock) (record.Block, error) { return ParseEthereumBlock(r) },
	chain.FamilyArbitrum: func(r *record.RawBlock) (record.Block, error) { return ParseArbitrumBlock(r) },
	chain.FamilyZKsync:   func(r *record.RawBlock) (record.Block, error) { return ParseZKsyncBlock(r) },
}

var transactionParsers = map[chain.Family]func(*record.RawTransaction, *record.RawReceipt, time.Time, time.Time) (record.Transaction, error){
	chain.FamilyEthereum: func(r *record.RawTransaction, rc *record.RawReceipt, bt, bd time.Time) (record.Transaction, error) {
		return ParseEthereumTransaction(r, rc, bt, bd)
	},
	chain.FamilyArbitrum: func(r *record.RawTransaction, rc *record.RawReceipt, bt, bd time.Time) (record.Transaction, error) {
		return ParseArbitrumTransaction(r, rc, bt, bd)
	},
	chain.FamilyZKsync: func(r *record.RawTransaction, rc *record.RawReceipt, bt, bd time.Time) (record.Transaction, error) {
		return ParseZKsyncTransaction(r, rc, bt, bd)
	},
}

var logParsers = map[chain.Family]func(*record.RawLog, time.Time, time.Time) (record.Log, error){
	chain.FamilyEthereum: func(r *record.RawLog, bt, bd time.Time) (record.Log, error) { return ParseEthereumLog(r, bt, bd) },
	chain.FamilyArbitrum: func(r *record.RawLog, bt, bd time.Time) (record.Log, error) { return ParseArbitrumLog(r, bt, bd) },
	chain.FamilyZKsync:   func(r *record.RawLog, bt, bd time.Time) (record.Log, error) { return ParseZKsyncLog(r, bt, bd) },
}

// ParseBlock dispatches to the registered block parser for t's family.
func ParseBlock(t chain.Type, raw *record.RawBlock) (record.Block, error) {
	fn, ok := blockParsers[chain.FamilyOf(t)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChain, t)
	}
	return fn(raw)
}

// ParseTransaction dispatches to the registered transaction parser for t's
// family. bt/bd are the enclosing block's time/date.
func ParseTransaction(t chain.Type, raw *record.RawTransaction, receipt *record.RawReceipt, bt, bd time.Time) (record.Transaction, error) {
	fn, ok := transactionParsers[chain.FamilyOf(t)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChain, t)
	}
	return fn(raw, receipt, bt, bd)
}

// ParseLog dispatches to the registered log parser for t's family.
func ParseLog(t chain.Type, raw *record.RawLog, bt, bd time.Time) (record.Log, error) {
	fn, ok := logParsers[chain.FamilyOf(t)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChain, t)
	}
	return fn(raw, bt, bd)
}

// Result is the fully parsed, persistence-ready output of one block.
type Result struct {
	Block        record.Block
	Transactions []record.Transaction
	Logs         []record.Log
}

// Parse is the composed parse routine (spec §4.3): given a raw block and
// the receipts fetched for its transactions (keyed by normalized tx hash,
// already filtered down to the ones the caller successfully fetched), it
// produces the typed block, its transactions, and their logs in one pass.
// Logs are sourced from each receipt's embedded logs, never a separate
// eth_getLogs call.
func Parse(t chain.Type, raw *record.RawBlock, receipts map[string]*record.RawReceipt) (*Result, error) {
	block, err := ParseBlock(t, raw)
	if err != nil {
		return nil, err
	}
	bt := block.GetBlockTime()
	bd := block.GetBlockDate()

	var txs []record.Transaction
	var logs []record.Log
	for i := range raw.Transactions {
		rawTx := raw.Transactions[i]
		receipt, ok := receipts[normalizeHexString(rawTx.Hash)]
		if !ok {
			continue
		}
		tx, err := ParseTransaction(t, &rawTx, receipt, bt, bd)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)

		for j := range receipt.Logs {
			rawLog := receipt.Logs[j]
			lg, err := ParseLog(t, &rawLog, bt, bd)
			if err != nil {
				return nil, err
			}
			logs = append(logs, lg)
		}
	}

	return &Result{Block: block, Transactions: txs, Logs: logs}, nil
}
