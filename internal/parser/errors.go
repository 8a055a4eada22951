package parser

import "errors"

// ErrStructural indicates a raw payload didn't match the shape a chain's
// parser expects — malformed hex, a field absent that the chain guarantees
// present. It is never retried by the caller; the block is abandoned.
var ErrStructural = errors.New("parser: structural decode failure")

// ErrUnsupportedChain indicates no parser is registered for a chain.Type —
// a configuration error, since internal/config validates chain names
// against the closed chain.Type set before the driver ever starts.
var ErrUnsupportedChain = errors.New("parser: unsupported chain")
