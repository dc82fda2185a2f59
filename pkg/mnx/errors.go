package mnx

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := pipeline.Run(ctx, cfg)
//	if errors.Is(err, mnx.ErrUnresolvedReference) {
//	    // source data is incomplete, nothing was written
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedFormula indicates a chemical formula outside the formula grammar.
	ErrMalformedFormula = errors.New("malformed formula")

	// ErrMalformedEquation indicates a reaction equation outside the equation grammar.
	ErrMalformedEquation = errors.New("malformed equation")

	// ErrMalformedRecord indicates a dump row that does not fit its file's column layout.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnsupportedSchemaVersion indicates a dump header matching no known release.
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")

	// ErrUnresolvedReference indicates a participant or cross-reference naming an id never seen in the input.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrDanglingEdge indicates an edge endpoint that is not an entity of the graph.
	ErrDanglingEdge = errors.New("dangling edge")

	// ErrDuplicateCanonicalKey indicates two entities sharing one canonical id.
	ErrDuplicateCanonicalKey = errors.New("duplicate canonical key")

	// ErrReferentialIntegrity indicates a sink write referencing an id absent from the batch.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrUnknownNamespace indicates a prefix missing from the namespace registry.
	ErrUnknownNamespace = errors.New("unknown namespace")

	// ErrApprovalDenied indicates the user denied approval for the operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSourceNotFound indicates an input dump could not be opened.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUsage indicates a command line that names unknown flags or the wrong arguments.
	ErrUsage = errors.New("usage error")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUnsupportedSchemaVersion):
		return ExitSchemaVersion
	case errors.Is(err, ErrUnresolvedReference):
		return ExitUnresolvedReference
	case errors.Is(err, ErrDanglingEdge), errors.Is(err, ErrDuplicateCanonicalKey):
		return ExitIntegrityViolation
	case errors.Is(err, ErrReferentialIntegrity):
		return ExitLoadRejected
	case errors.Is(err, ErrSourceNotFound):
		return ExitSourceMissing
	}

	errStr := err.Error()
	for _, usage := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "required flag", "invalid argument"} {
		if strings.Contains(errStr, usage) {
			return ExitUsageError
		}
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
