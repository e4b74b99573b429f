// Package tx declares the transaction boundary the ledger services run under.
package tx

import "context"

// Manager scopes a unit of work. fn sees a context carrying the transaction;
// a non-nil return rolls it back. Calling RunInTransaction again with that
// context joins the open transaction.
//
// Each lot draw or restoration is one unit, so a later failure leaves earlier
// units committed.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds snapshot reads for valuation and COGS reports.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
