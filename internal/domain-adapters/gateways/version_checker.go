package gateways

import (
	"context"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

// noOpVersionChecker is the default checking-phase collaborator; no online catalogue is consulted
type noOpVersionChecker struct{}

// NewNoOpVersionChecker creates a version checker that completes immediately
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewNoOpVersionChecker() *noOpVersionChecker {
	return &noOpVersionChecker{}
}

// CheckNativeVersions honours cancellation and otherwise leaves the report untouched
func (c *noOpVersionChecker) CheckNativeVersions(ctx context.Context, _ *entities.ScanReport) error {
	return ctx.Err()
}
