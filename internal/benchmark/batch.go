package benchmark

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freightbench/internal/model"
)

// Outcome status of one shipment in a batch.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type BatchOptions struct {
	// Workers bounds the number of shipments computed concurrently.
	Workers int
	// ShipmentTimeout bounds each shipment; zero disables it.
	ShipmentTimeout time.Duration
}

// Outcome is the per-shipment entry of a batch summary.
type Outcome struct {
	Index         int                    `json:"index"`
	ShipmentID    string                 `json:"shipment_id,omitempty"`
	Status        string                 `json:"status"`
	Result        *model.BenchmarkResult `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	MissingFields []string               `json:"missing_fields,omitempty"`
}

type BatchSummary struct {
	Total    int       `json:"total"`
	Success  int       `json:"success"`
	Partial  int       `json:"partial"`
	Errors   int       `json:"errors"`
	Skipped  int       `json:"skipped"`
	Outcomes []Outcome `json:"outcomes"`
}

// ComputeBatch computes every shipment independently on a bounded worker
// pool. A failed shipment never stops the batch; cancelling ctx stops
// scheduling further shipments, which are reported as skipped.
func (a *Assembler) ComputeBatch(ctx context.Context, shipments []model.ShipmentInput, opts BatchOptions) BatchSummary {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	run := a.withStore(newMemoStore(a.store))

	outcomes := make([]Outcome, len(shipments))
	for i, s := range shipments {
		outcomes[i] = Outcome{Index: i, ShipmentID: s.ShipmentID, Status: StatusSkipped}
	}

	var success, partial, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range shipments {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// cancelled while waiting for a slot
			if ctx.Err() != nil {
				return nil
			}
			out := run.computeOne(ctx, i, shipments[i], opts.ShipmentTimeout)
			switch out.Status {
			case StatusSuccess:
				success.Inc()
			case StatusPartial:
				partial.Inc()
			default:
				failed.Inc()
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	sum := BatchSummary{
		Total:    len(shipments),
		Success:  int(success.Load()),
		Partial:  int(partial.Load()),
		Errors:   int(failed.Load()),
		Outcomes: outcomes,
	}
	sum.Skipped = sum.Total - sum.Success - sum.Partial - sum.Errors
	a.log.Info("benchmark batch finished",
		zap.Int("total", sum.Total),
		zap.Int("success", sum.Success),
		zap.Int("partial", sum.Partial),
		zap.Int("errors", sum.Errors),
		zap.Int("skipped", sum.Skipped))
	return sum
}

func (a *Assembler) computeOne(ctx context.Context, i int, s model.ShipmentInput, timeout time.Duration) (out Outcome) {
	out = Outcome{Index: i, ShipmentID: s.ShipmentID}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("benchmark computation panicked",
				zap.Int("index", i),
				zap.String("shipment_id", s.ShipmentID),
				zap.Any("panic", r))
			out.Status = StatusError
			out.Result = nil
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	res, err := a.Compute(ctx, s)
	if err == nil {
		out.Status = StatusSuccess
		out.Result = res
		return out
	}
	out.Error = err.Error()
	if missing := s.MissingFields(); len(missing) > 0 {
		out.Status = StatusPartial
		out.MissingFields = missing
	} else {
		out.Status = StatusError
	}
	a.log.Warn("benchmark computation failed",
		zap.Int("index", i),
		zap.String("shipment_id", s.ShipmentID),
		zap.String("status", out.Status),
		zap.Error(err))
	return out
}
