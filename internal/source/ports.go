package source

import (
	"context"

	"ledgerview/internal/core"
)

// Ports for transaction adapters.
type (
	// TransactionReader returns every raw record a source holds, in source order.
	// Records are validated by the caller.
	TransactionReader interface {
		ReadTransactions(ctx context.Context) ([]core.RawTransaction, error)
	}

	// TransactionWriter stores validated transactions, replacing any with the
	// same ID, and reports how many were written.
	TransactionWriter interface {
		UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error)
	}

	TransactionStore interface {
		TransactionReader
		TransactionWriter
	}
)
