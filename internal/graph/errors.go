package graph

import (
	"errors"
	"fmt"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// maxReportedReferences caps the number of unresolved references listed in one error.
const maxReportedReferences = 20

// ReferenceError reports an id a record refers to that no record declares.
type ReferenceError struct {
	Record mnx.RawRecord
	Ref    mnx.SourceRef
	Kind   mnx.Kind
	// Role names how the record uses the id, e.g. "participant".
	Role string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %s %s is never declared: %v", e.Record.Location(), e.Role, e.Kind, e.Ref, mnx.ErrUnresolvedReference)
}

func (e *ReferenceError) Unwrap() error {
	return mnx.ErrUnresolvedReference
}

func joinReferenceErrors(errs []error) error {
	if len(errs) > maxReportedReferences {
		more := len(errs) - maxReportedReferences
		errs = append(errs[:maxReportedReferences:maxReportedReferences], fmt.Errorf("... and %d more", more))
	}
	return fmt.Errorf("graph assembly failed: %w", errors.Join(errs...))
}
