package storage

import "errors"

// ErrAlreadyExists is returned by LoadTable under PolicyFail when the
// target block range already has rows in the dataset.
var ErrAlreadyExists = errors.New("storage: rows already exist for this block range")

// ErrUnrecognizedPolicy is returned by LoadTable for any LoadPolicy value
// outside {fail, replace, append}.
var ErrUnrecognizedPolicy = errors.New("storage: unrecognized load policy")
