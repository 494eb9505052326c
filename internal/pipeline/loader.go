package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
)

// FanoutLoader hands each batch to every loader in order and joins their errors.
// All loaders see the batch even when an earlier one fails.
type FanoutLoader struct {
	loaders []BatchLoader
}

// NewFanoutLoader combines loaders, e.g. the Kafka sink and the result store.
func NewFanoutLoader(loaders ...BatchLoader) *FanoutLoader {
	return &FanoutLoader{loaders: loaders}
}

func (f *FanoutLoader) LoadBatch(ctx context.Context, reports []domain.SimulationReport) error {
	var errs []error
	for _, l := range f.loaders {
		if err := l.LoadBatch(ctx, reports); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
