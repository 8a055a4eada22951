package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgingerich/evm-indexer/internal/chain"
	"github.com/lgingerich/evm-indexer/internal/record"
)

func TestParseBlock_DispatchesPerChainFamily(t *testing.T) {
	raw := baseRawBlock()
	raw.L1BlockNumber = strPtr("0x1")

	for _, tc := range []struct {
		chainType chain.Type
		want      interface{}
	}{
		{chain.Ethereum, &record.EthereumBlock{}},
		{chain.Arbitrum, &record.ArbitrumBlock{}},
		{chain.ZKsync, &record.ZKsyncBlock{}},
		{chain.CronosZkEVM, &record.ZKsyncBlock{}},
	} {
		block, err := ParseBlock(tc.chainType, raw)
		require.NoError(t, err, tc.chainType)
		assert.IsType(t, tc.want, block, tc.chainType)
	}
}

func TestParse_ComposesBlockTransactionsAndLogs(t *testing.T) {
	raw := baseRawBlock()
	tx := *baseRawTx()
	raw.Transactions = []record.RawTransaction{tx}

	receipt := baseReceipt()
	receipt.Logs = []record.RawLog{*baseRawLog()}

	receipts := map[string]*record.RawReceipt{
		normalizeHexString(tx.Hash): receipt,
	}

	result, err := Parse(chain.Ethereum, raw, receipts)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, result.Block.GetBlockNumber(), result.Transactions[0].GetBlockNumber())
	assert.Equal(t, result.Transactions[0].GetTransactionHash(), result.Logs[0].GetTransactionHash())
}

func TestParse_SkipsTransactionsWithoutAFetchedReceipt(t *testing.T) {
	raw := baseRawBlock()
	tx := *baseRawTx()
	raw.Transactions = []record.RawTransaction{tx}

	result, err := Parse(chain.Ethereum, raw, map[string]*record.RawReceipt{})
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	assert.Empty(t, result.Logs)
}
