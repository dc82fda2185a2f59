package mnx

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InputKind names one of the MetaNetX dump tables.
type InputKind string

const (
	InputChemProp InputKind = "chem_prop"
	InputChemXref InputKind = "chem_xref"
	InputCompProp InputKind = "comp_prop"
	InputCompXref InputKind = "comp_xref"
	InputReacProp InputKind = "reac_prop"
	InputReacXref InputKind = "reac_xref"
)

// InputKinds lists the dump tables in the order they are ingested.
var InputKinds = []InputKind{
	InputCompProp, InputCompXref,
	InputChemProp, InputChemXref,
	InputReacProp, InputReacXref,
}

// ParseInputKind accepts "chem_prop", "chem-prop" and file-like "chem_prop.tsv".
func ParseInputKind(s string) (InputKind, error) {
	norm := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), ".tsv"))
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, k := range InputKinds {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown input kind %q (expected one of chem_prop, chem_xref, comp_prop, comp_xref, reac_prop, reac_xref): %w", s, ErrInvalidConfig)
}

// EntityKind returns the kind of entity described by the table.
func (k InputKind) EntityKind() Kind {
	switch k {
	case InputChemProp, InputChemXref:
		return KindCompound
	case InputReacProp, InputReacXref:
		return KindReaction
	default:
		return KindCompartment
	}
}

// IsXref reports whether the table holds cross-references.
func (k InputKind) IsXref() bool {
	return strings.HasSuffix(string(k), "_xref")
}

// PropKind returns the property table an xref table points into.
// Property tables map to themselves.
func (k InputKind) PropKind() InputKind {
	if !k.IsXref() {
		return k
	}
	return InputKind(strings.TrimSuffix(string(k), "_xref") + "_prop")
}

// SinkKind selects the Load Adapter backend.
type SinkKind string

const (
	SinkPostgres SinkKind = "postgres"
	SinkSQLite   SinkKind = "sqlite"
	SinkNone     SinkKind = "none"
)

// ParseSinkKind maps "postgres", "sqlite" and "none" to a SinkKind.
func ParseSinkKind(s string) (SinkKind, error) {
	switch k := SinkKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SinkPostgres, SinkSQLite, SinkNone:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sink %q: %w", s, ErrInvalidConfig)
	}
}

// RunConfig contains all parameters needed for a pipeline run.
type RunConfig struct {
	// Inputs maps dump tables to file paths or s3:// URIs.
	Inputs map[InputKind]string

	// RegistryPath is an optional identifiers.org registry JSON file.
	RegistryPath string

	// Priority orders namespaces when choosing canonical representatives.
	Priority []string

	// PrefixAliases rewrites source prefixes before resolution, e.g. "mnx" -> "metanetx.chemical".
	PrefixAliases map[string]string

	// DefaultCompartment is used for equation terms written without a compartment.
	DefaultCompartment string

	// PseudoElements are accepted by the formula grammar in addition to the periodic table.
	PseudoElements []string

	// MergeByInChIKey unions compounds sharing a structure key.
	MergeByInChIKey bool

	// Workers bounds parallel record parsing. Zero means GOMAXPROCS.
	Workers int

	Sink             SinkKind
	ConnectionString string
	SQLitePath       string

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	DiagnosticsFile string
	MetricsFile     string
	Verbose         bool

	Connection ConnectionConfig
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if len(c.Inputs) == 0 {
		errs = append(errs, fmt.Errorf("at least one input table is required: %w", ErrInvalidConfig))
	}
	for kind, loc := range c.Inputs {
		if loc == "" {
			errs = append(errs, fmt.Errorf("input %s has an empty location: %w", kind, ErrInvalidConfig))
		}
		if kind.IsXref() {
			if _, ok := c.Inputs[kind.PropKind()]; !ok {
				errs = append(errs, fmt.Errorf("input %s requires %s: %w", kind, kind.PropKind(), ErrInvalidConfig))
			}
		}
	}
	if _, ok := c.Inputs[InputReacProp]; ok {
		for _, need := range []InputKind{InputChemProp, InputCompProp} {
			if _, ok := c.Inputs[need]; !ok {
				errs = append(errs, fmt.Errorf("input reac_prop requires %s: %w", need, ErrInvalidConfig))
			}
		}
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative: %w", ErrInvalidConfig))
	}

	switch c.Sink {
	case SinkPostgres:
		if c.ConnectionString == "" && c.Connection.Database == "" {
			errs = append(errs, fmt.Errorf("postgres sink requires a connection string or target database: %w", ErrInvalidConfig))
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("sqlite sink requires a database path: %w", ErrInvalidConfig))
		}
	case SinkNone:
	default:
		errs = append(errs, fmt.Errorf("unknown sink %q: %w", c.Sink, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ResetConfig contains the parameters of a sink reset.
type ResetConfig struct {
	Sink             SinkKind
	ConnectionString string
	SQLitePath       string
	Force            bool
	Timeout          time.Duration
	Verbose          bool

	Connection ConnectionConfig
}

// Validate checks the reset target.
func (c *ResetConfig) Validate() error {
	var errs []error
	switch c.Sink {
	case SinkPostgres:
		if c.ConnectionString == "" && c.Connection.Database == "" {
			errs = append(errs, fmt.Errorf("postgres reset requires a connection string or target database: %w", ErrInvalidConfig))
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("sqlite reset requires a database path: %w", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("reset supports postgres and sqlite sinks, got %q: %w", c.Sink, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps flag values ("standard", "aws", "google", "azure") to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// InitConfig contains the parameters of sink initialisation.
type InitConfig struct {
	Sink             SinkKind
	ConnectionString string
	SQLitePath       string

	// MaintenanceDatabase is where CREATE DATABASE runs. Empty means DefaultManagementDB.
	MaintenanceDatabase string

	Timeout time.Duration
	Verbose bool

	Connection ConnectionConfig
}

// Validate checks the init target.
func (c *InitConfig) Validate() error {
	reset := ResetConfig{
		Sink:             c.Sink,
		ConnectionString: c.ConnectionString,
		SQLitePath:       c.SQLitePath,
		Timeout:          c.Timeout,
		Connection:       c.Connection,
	}
	return reset.Validate()
}
