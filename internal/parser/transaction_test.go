package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgingerich/evm-indexer/internal/record"
)

func baseRawTx() *record.RawTransaction {
	return &record.RawTransaction{
		BlockHash:        "0x00",
		BlockNumber:      "0x64",
		From:             "0xAAAA000000000000000000000000000000000000",
		Gas:              "0x5208",
		GasPrice:         "0x3b9aca00",
		Hash:             "0xBBBB000000000000000000000000000000000000000000000000000000CC",
		Input:            "0x",
		Nonce:            "0x1",
		To:               strPtr("0xDDDD000000000000000000000000000000000000"),
		TransactionIndex: "0x0",
		Value:            "0xde0b6b3a7640000", // 1e18
	}
}

func baseReceipt() *record.RawReceipt {
	return &record.RawReceipt{
		BlockHash:         "0x00",
		BlockNumber:       "0x64",
		CumulativeGasUsed: "0x5208",
		EffectiveGasPrice: "0x3b9aca00",
		From:              "0xAAAA000000000000000000000000000000000000",
		GasUsed:           "0x5208",
		LogsBloom:         "0x00",
		Status:            strPtr("0x1"),
		TransactionHash:   "0xBBBB000000000000000000000000000000000000000000000000000000CC",
		TransactionIndex:  "0x0",
	}
}

var testBlockTime = time.Unix(1722810368, 0).UTC()
var testBlockDate = time.Date(2024, 8, 4, 0, 0, 0, 0, time.UTC)

func TestParseEthereumTransaction_ValueIsDecimalString(t *testing.T) {
	tx, err := ParseEthereumTransaction(baseRawTx(), baseReceipt(), testBlockTime, testBlockDate)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", tx.Value)
	assert.Equal(t, uint64(1), tx.Status)
	require.NotNil(t, tx.ToAddress)
	assert.Equal(t, "0xdddd000000000000000000000000000000000000", *tx.ToAddress)
}

func TestParseEthereumTransaction_ContractCreationHasNilToAddress(t *testing.T) {
	raw := baseRawTx()
	raw.To = nil
	receipt := baseReceipt()
	receipt.ContractAddress = strPtr("0xEEEE000000000000000000000000000000000000")

	tx, err := ParseEthereumTransaction(raw, receipt, testBlockTime, testBlockDate)
	require.NoError(t, err)
	assert.Nil(t, tx.ToAddress)
	require.NotNil(t, tx.ContractAddress)
	assert.Equal(t, "0xeeee000000000000000000000000000000000000", *tx.ContractAddress)
}

func TestParseEthereumTransaction_AccessListAndBlobFields(t *testing.T) {
	raw := baseRawTx()
	raw.Type = strPtr("0x3")
	raw.MaxFeePerGas = strPtr("0x77359400")
	raw.MaxPriorityFeePerGas = strPtr("0x3b9aca00")
	raw.MaxFeePerBlobGas = strPtr("0x1")
	raw.BlobVersionedHashes = []string{"0xFF00"}
	raw.AccessList = []record.RawAccessListEntry{
		{Address: "0xAAAA000000000000000000000000000000000000", StorageKeys: []string{"0x01", "0x02"}},
	}

	tx, err := ParseEthereumTransaction(raw, baseReceipt(), testBlockTime, testBlockDate)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), tx.Type)
	require.Len(t, tx.AccessList, 1)
	assert.Equal(t, []string{"0x01", "0x02"}, tx.AccessList[0].StorageKeys)
	require.Len(t, tx.BlobVersionedHashes, 1)
	assert.Equal(t, "0xff00", tx.BlobVersionedHashes[0])
}

func TestParseArbitrumTransaction_L1DataFeeFieldsFromReceipt(t *testing.T) {
	receipt := baseReceipt()
	receipt.GasUsedForL1 = strPtr("0x64")
	receipt.L1BlockNumber = strPtr("0x3e8")

	tx, err := ParseArbitrumTransaction(baseRawTx(), receipt, testBlockTime, testBlockDate)
	require.NoError(t, err)
	require.NotNil(t, tx.GasUsedForL1)
	assert.Equal(t, uint64(100), *tx.GasUsedForL1)
	require.NotNil(t, tx.L1BlockNumber)
	assert.Equal(t, uint64(1000), *tx.L1BlockNumber)
}

func TestParseZKsyncTransaction_RequiredFeeFieldsAndRoot(t *testing.T) {
	raw := baseRawTx()
	raw.MaxFeePerGas = strPtr("0x77359400")
	raw.MaxPriorityFeePerGas = strPtr("0x3b9aca00")
	raw.L1BatchNumber = strPtr("0xa")
	receipt := baseReceipt()
	receipt.Root = strPtr("0xFEED")

	tx, err := ParseZKsyncTransaction(raw, receipt, testBlockTime, testBlockDate)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000000000), tx.MaxFeePerGas)
	assert.Equal(t, uint64(1000000000), tx.MaxPriorityFeePerGas)
	require.NotNil(t, tx.L1BatchNumber)
	assert.Equal(t, uint64(10), *tx.L1BatchNumber)
	assert.Equal(t, "0xfeed", tx.Root)
}

func TestParseZKsyncTransaction_MissingRootDefaultsEmpty(t *testing.T) {
	raw := baseRawTx()
	raw.MaxFeePerGas = strPtr("0x1")
	raw.MaxPriorityFeePerGas = strPtr("0x1")

	tx, err := ParseZKsyncTransaction(raw, baseReceipt(), testBlockTime, testBlockDate)
	require.NoError(t, err)
	assert.Equal(t, "", tx.Root)
}

func TestParseZKsyncTransaction_MissingFeeFieldIsStructural(t *testing.T) {
	raw := baseRawTx()
	raw.MaxFeePerGas = strPtr("0x77359400")
	raw.MaxPriorityFeePerGas = nil

	_, err := ParseZKsyncTransaction(raw, baseReceipt(), testBlockTime, testBlockDate)
	assert.ErrorIs(t, err, ErrStructural)
}
