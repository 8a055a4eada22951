// Package parser implements the core's chain-aware normalization layer
// (C3): pure functions that turn a RawBlock/RawTransaction/RawReceipt/RawLog
// into the typed record model, dispatched per (chain family, record kind)
// from three static tables, one per record kind (spec §4.3, §9).
package parser

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// normalizeHexString is the one place a hex-bytes field is forced into the
// canonical lowercase 0x-prefixed form the record model requires. Fields
// already arrive this way from a standards-compliant node, but this is
// never skipped — a non-compliant node producing mixed-case hex must not
// leak past the parser.
func normalizeHexString(s string) string {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return strings.ToLower(s)
}

// NormalizeHash exposes the canonical lowercase 0x-prefixed form of a hash
// string for callers outside this package that need to key a map the same
// way Parse keys its receipts argument (internal/indexer fetches receipts
// keyed by transaction hash before calling Parse).
func NormalizeHash(s string) string { return normalizeHexString(s) }

func normalizeOptionalHexString(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeHexString(*s)
	return &v
}

func normalizeHexStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = normalizeHexString(s)
	}
	return out
}

// decodeHexUint64 centralizes hex-string-to-int conversion (spec §9 design
// note): every call site in this package goes through here or
// decodeOptionalHexUint64, never hexutil directly, so silent truncation
// can't slip in at a second, divergent call site.
func decodeHexUint64(s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, fmt.Errorf("parser: %w: decode hex uint64 %q: %v", ErrStructural, s, err)
	}
	return v, nil
}

// decodeOptionalHexUint64 models fields like l1BatchNumber that arrive as a
// hex string or are simply absent from the payload. Absence yields nil,
// never a sentinel zero.
func decodeOptionalHexUint64(s *string) (*uint64, error) {
	if s == nil {
		return nil, nil
	}
	v, err := decodeHexUint64(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeRequiredHexUint64 decodes a field the record model stores as a
// plain (non-pointer) uint64 but that still arrives as an optional hex
// string on the wire. Unlike decodeOptionalHexUint64, a missing value here
// is not a legitimate state the record model can represent, so it is
// rejected as ErrStructural rather than silently collapsed to zero.
func decodeRequiredHexUint64(s *string, field string) (uint64, error) {
	if s == nil {
		return 0, fmt.Errorf("parser: %w: missing required field %s", ErrStructural, field)
	}
	return decodeHexUint64(*s)
}

// decodeHexDecimal decodes an arbitrary-width hex integer (difficulty,
// total_difficulty) into a decimal.Decimal so values past 2^64 — Ethereum
// mainnet's historical total_difficulty among them — round-trip exactly.
func decodeHexDecimal(s string) (decimal.Decimal, error) {
	bi, err := hexutil.DecodeBig(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parser: %w: decode hex decimal %q: %v", ErrStructural, s, err)
	}
	return decimal.NewFromBigInt(bi, 0), nil
}

// decodeHexBigString decodes a hex-encoded quantity into its base-10 string
// representation, for fields the record model carries as a stringified
// 256-bit integer (transaction value) rather than as hex.
func decodeHexBigString(s string) (string, error) {
	bi, err := hexutil.DecodeBig(s)
	if err != nil {
		return "", fmt.Errorf("parser: %w: decode hex big int %q: %v", ErrStructural, s, err)
	}
	return bi.String(), nil
}
