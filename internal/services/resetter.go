package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// Resetter drops and recreates the sink tables after approval.
type Resetter struct {
	sinks    SinkOpener
	approver mnx.Approver
	logger   mnx.Logger
}

// NewResetter panics if any dependency is nil.
func NewResetter(sinks SinkOpener, approver mnx.Approver, logger mnx.Logger) *Resetter {
	if sinks == nil {
		panic("sinks cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Resetter{sinks: sinks, approver: approver, logger: logger}
}

// Reset asks for approval, then drops every sink table and recreates the schema.
func (r *Resetter) Reset(ctx context.Context, cfg mnx.ResetConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	target := Target{
		Kind:             cfg.Sink,
		ConnectionString: cfg.ConnectionString,
		SQLitePath:       cfg.SQLitePath,
		Connection:       cfg.Connection,
	}
	approved, err := r.approver.RequestApproval(ctx, target.Name())
	if err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("reset of %q was not approved: %w", target.Name(), mnx.ErrApprovalDenied)
	}

	sink, cleanup, err := r.sinks.Open(ctx, target)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := sink.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset %s: %w", target.Name(), err)
	}
	r.logger.Info("✓ Reset %s", target.Name())
	return nil
}
