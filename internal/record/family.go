package record

import (
	"fmt"

	"github.com/lgingerich/evm-indexer/internal/chain"
)

// EmptyBlock, EmptyTransaction, and EmptyLog return a zero-value instance
// of the concrete record type for a chain family. The indexer driver (C5)
// uses these to derive each dataset's storage.Schema once at startup and
// to know which concrete type to box parsed values into; mirrors the
// closed (family -> func) dispatch tables in internal/parser.
func EmptyBlock(f chain.Family) Block {
	switch f {
	case chain.FamilyEthereum:
		return &EthereumBlock{}
	case chain.FamilyArbitrum:
		return &ArbitrumBlock{}
	case chain.FamilyZKsync:
		return &ZKsyncBlock{}
	default:
		panic(fmt.Sprintf("record: no block type registered for family %q", f))
	}
}

func EmptyTransaction(f chain.Family) Transaction {
	switch f {
	case chain.FamilyEthereum:
		return &EthereumTransaction{}
	case chain.FamilyArbitrum:
		return &ArbitrumTransaction{}
	case chain.FamilyZKsync:
		return &ZKsyncTransaction{}
	default:
		panic(fmt.Sprintf("record: no transaction type registered for family %q", f))
	}
}

func EmptyLog(f chain.Family) Log {
	switch f {
	case chain.FamilyEthereum:
		return &EthereumLog{}
	case chain.FamilyArbitrum:
		return &ArbitrumLog{}
	case chain.FamilyZKsync:
		return &ZKsyncLog{}
	default:
		panic(fmt.Sprintf("record: no log type registered for family %q", f))
	}
}
