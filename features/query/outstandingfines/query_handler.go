package outstandingfines

import (
	"context"
	"time"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// QueryHandler orchestrates the query processing workflow. It reads the
// borrower's fine rows inside one read-only unit of work and delegates the
// projection to the pure core function.
type QueryHandler struct {
	txRunner         circulation.TxRunner
	metricsCollector shell.MetricsCollector
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithMetrics sets the metrics collector used to instrument query handling.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *QueryHandler) {
		h.metricsCollector = collector
	}
}

// NewQueryHandler creates a new QueryHandler with optional configuration.
func NewQueryHandler(txRunner circulation.TxRunner, opts ...Option) QueryHandler {
	handler := QueryHandler{
		txRunner: txRunner,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the query processing workflow: Load -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OutstandingFines, error) {
	start := time.Now()

	var fines []circulation.Fine

	err := h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		loaded, loadErr := uow.OpenFinesForBorrower(txCtx, query.BorrowerID)
		if loadErr != nil {
			return loadErr
		}

		fines = loaded

		return nil
	})

	shell.RecordQueryMetrics(ctx, h.metricsCollector, queryType, shell.StatusFromError(err), time.Since(start))

	if err != nil {
		return OutstandingFines{}, err
	}

	return ProjectOutstandingFines(fines, query), nil
}
