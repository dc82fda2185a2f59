package mnx

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess             = 0  // Run completed, graph validated (and loaded unless dry run)
	ExitGeneralError        = 1  // Unknown or unclassified error
	ExitUsageError          = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic               = 3  // Internal panic (unexpected crash)
	ExitConfigError         = 10 // Invalid configuration or parameters
	ExitConnectionError     = 11 // Failed to connect to database
	ExitApprovalDenied      = 12 // User denied reset approval
	ExitSchemaVersion       = 20 // Input header does not match a known MetaNetX release
	ExitUnresolvedReference = 21 // Participant or cross-reference names an unknown id
	ExitIntegrityViolation  = 22 // Dangling edge or duplicate canonical key
	ExitLoadRejected        = 23 // Sink refused the batch
	ExitSourceMissing       = 24 // Input dump could not be read
)

const (
	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the default database to connect to for management operations.
	DefaultManagementDB = "postgres"

	// DefaultTimeout bounds a whole pipeline run.
	DefaultTimeout = 3 * time.Hour

	// DefaultBatchSize is the number of rows queued per pgx batch or sqlite statement group.
	DefaultBatchSize = 1000
)

// Namespaces that hold MetaNetX primary identifiers.
const (
	NamespaceChemical    = "metanetx.chemical"
	NamespaceReaction    = "metanetx.reaction"
	NamespaceCompartment = "metanetx.compartment"
	NamespaceECCode      = "ec-code"
)

// DefaultPriority is the namespace order used to pick canonical representatives
// when the configuration does not provide one.
var DefaultPriority = []string{NamespaceChemical, NamespaceReaction, NamespaceCompartment}

// DefaultCompartment is assumed for equation terms written without '@compartment'.
const DefaultCompartment = "MNXD1"

// Attribute keys the pipeline interprets. Other attributes are carried opaquely.
const (
	AttrInChIKey = "inchikey"
	AttrEC       = "ec"
)
