// Package errors provides error handling for promptkit.
//
// It re-exports github.com/cockroachdb/errors so that every package builds,
// wraps, marks and inspects errors the same way. Domain packages declare
// their own sentinels (for example store.ErrTemplateNotFound) and attach them
// with Mark, which keeps the user-facing message intact while letting callers
// match the failure kind with Is.
//
// Usage:
//
//	err := errors.Newf("Template '%s' not found", name)
//	return errors.Mark(errors.WithHint(err, "run 'pk list'"), ErrTemplateNotFound)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing hints and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Hints returns the hints attached anywhere in err's chain, deduplicated and
// in attachment order. Nil errors have no hints.
func Hints(err error) []string {
	if err == nil {
		return nil
	}
	return crdb.GetAllHints(err)
}
