package kv

import "github.com/pkg/errors"

var (
	errClosed   = errors.New("store is closed")
	errReadOnly = errors.New("transaction is read-only")
)
