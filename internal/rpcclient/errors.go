package rpcclient

import "errors"

// ErrNotFound indicates the requested block or transaction receipt does not
// exist on the endpoint queried. It is never retried (spec §4.2, §7) — the
// caller (C5) logs and advances past it.
var ErrNotFound = errors.New("rpcclient: not found")

// ErrStructural indicates the RPC payload didn't match the expected wire
// shape — a signal of chain fork or node-version drift (spec §4.3, §7). It
// is never retried; the current block is abandoned immediately.
var ErrStructural = errors.New("rpcclient: structural decode failure")
