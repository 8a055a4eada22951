package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgingerich/evm-indexer/internal/record"
)

func TestDeriveSchema_EthereumBlockIncludesBaseAndExtensionColumns(t *testing.T) {
	schema, err := DeriveSchema(&record.EthereumBlock{})
	require.NoError(t, err)

	names := schema.ColumnNames()
	assert.Contains(t, names, "block_number")
	assert.Contains(t, names, "block_hash")
	assert.Contains(t, names, "difficulty")
	assert.Contains(t, names, "blob_gas_used")
	assert.Contains(t, names, "withdrawals")
}

func TestDeriveSchema_ArbitrumBlockHasL1BlockNumberNotWithdrawals(t *testing.T) {
	schema, err := DeriveSchema(&record.ArbitrumBlock{})
	require.NoError(t, err)

	names := schema.ColumnNames()
	assert.Contains(t, names, "l1_block_number")
	assert.NotContains(t, names, "withdrawals")
}

func TestDeriveSchema_ZKsyncTransactionHasRequiredFeeFields(t *testing.T) {
	schema, err := DeriveSchema(&record.ZKsyncTransaction{})
	require.NoError(t, err)

	names := schema.ColumnNames()
	assert.Contains(t, names, "max_fee_per_gas")
	assert.Contains(t, names, "root")
	assert.Contains(t, names, "contract_address") // inherited from TransactionBase, not duplicated on the extension
}

func TestRowValues_ExtractsInDeclarationOrder(t *testing.T) {
	block := &record.EthereumBlock{
		BlockBase: record.BlockBase{
			BlockNumber: 42,
			BlockHash:   "0xabc",
			BlockTime:   time.Unix(1000, 0).UTC(),
			Difficulty:  decimal.NewFromInt(7),
		},
	}
	schema, err := DeriveSchema(block)
	require.NoError(t, err)

	values, err := RowValues(block, schema)
	require.NoError(t, err)
	require.Len(t, values, len(schema))

	for i, col := range schema {
		switch col.Name {
		case "block_number":
			assert.Equal(t, uint64(42), values[i])
		case "block_hash":
			assert.Equal(t, "0xabc", values[i])
		case "difficulty":
			assert.Equal(t, decimal.NewFromInt(7), values[i])
		}
	}
}

func TestMarshalColumnValue_DecimalAndTimeAndComposite(t *testing.T) {
	d, err := MarshalColumnValue(decimal.NewFromInt(123))
	require.NoError(t, err)
	assert.Equal(t, "123", d)

	ts, err := MarshalColumnValue(time.Unix(1722810368, 0).UTC())
	require.NoError(t, err)
	assert.Equal(t, "2024-08-04T22:26:08Z", ts)

	list, err := MarshalColumnValue([]string{"0x01", "0x02"})
	require.NoError(t, err)
	assert.Equal(t, `["0x01","0x02"]`, list)

	var nilPtr *uint64
	n, err := MarshalColumnValue(nilPtr)
	require.NoError(t, err)
	assert.Nil(t, n)
}
