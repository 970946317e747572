package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk processing.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkDetector seeds large visit datasets and re-runs crossing detection
// over them using worker pools. Detection is idempotent, so a failed or
// interrupted pass can simply be run again.
type BulkDetector struct {
	service *CrossingService
	workers int
}

// NewBulkDetector creates a BulkDetector with the provided concurrency.
func NewBulkDetector(service *CrossingService, workers int) *BulkDetector {
	if workers <= 0 {
		workers = 4
	}
	return &BulkDetector{
		service: service,
		workers: workers,
	}
}

// SeedVisits persists the provided visits concurrently without detection.
func (bd *BulkDetector) SeedVisits(ctx context.Context, visits []domain.Visit) error {
	return bd.run(ctx, len(visits), func(idx int) error {
		return bd.service.SeedVisit(ctx, visits[idx])
	})
}

// DetectAll runs crossing detection over the provided visits concurrently
// and returns how many crossing records changed across the whole pass.
func (bd *BulkDetector) DetectAll(ctx context.Context, visits []domain.Visit) (int, error) {
	var changed atomic.Int64
	err := bd.run(ctx, len(visits), func(idx int) error {
		n, err := bd.service.RedetectVisit(ctx, visits[idx])
		if err != nil {
			return err
		}
		changed.Add(int64(n))
		return nil
	})
	return int(changed.Load()), err
}

func (bd *BulkDetector) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bd.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
