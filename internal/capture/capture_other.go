//go:build !linux && !darwin && !windows

package capture

import "context"

type unsupported struct{}

func (unsupported) Sources(context.Context, ...Kind) ([]Source, error) { return nil, ErrNotSupported }

func (unsupported) Acquire(context.Context, Constraints) (Stream, error) { return nil, ErrNotSupported }

// New creates the platform capture service.
func New() Platform { return unsupported{} }
