package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
	AuthMethod         string `yaml:"auth_method,omitempty"`
	AzureTenantID      string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID      string `yaml:"azure_client_id,omitempty"`
	AWSRegion          string `yaml:"aws_region,omitempty"`
	GoogleInstance     string `yaml:"google_instance,omitempty"`
}

// ProjectConfig mirrors mnxnorm.yaml. Zero values mean "not set" so that
// flags and environment can take precedence.
type ProjectConfig struct {
	Connection         ConnectionConfig  `yaml:"connection"`
	Inputs             map[string]string `yaml:"inputs"`
	Registry           string            `yaml:"registry"`
	Priority           []string          `yaml:"priority"`
	PrefixAliases      map[string]string `yaml:"prefix_aliases"`
	DefaultCompartment string            `yaml:"default_compartment"`
	PseudoElements     []string          `yaml:"pseudo_elements"`
	Workers            int               `yaml:"workers"`
	MergeByInChIKey    *bool             `yaml:"merge_by_inchikey"`
	Sink               string            `yaml:"sink"`
	SQLitePath         string            `yaml:"sqlite_path"`
	Timeout            string            `yaml:"timeout"`
	DiagnosticsFile    string            `yaml:"diagnostics_file"`
	MetricsFile        string            `yaml:"metrics_file"`
}

const ConfigFileName = "mnxnorm.yaml"

// Load reads mnxnorm.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, err, mnx.ErrInvalidConfig)
	}
	return &cfg, nil
}

// ApplyTo fills fields of cfg that are still unset. Inputs from the file are
// added only for kinds the caller did not already provide.
func (p *ProjectConfig) ApplyTo(cfg *mnx.RunConfig) error {
	if p == nil {
		return nil
	}
	var errs []error

	for name, location := range p.Inputs {
		kind, err := mnx.ParseInputKind(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("inputs.%s: %w", name, err))
			continue
		}
		if cfg.Inputs == nil {
			cfg.Inputs = make(map[mnx.InputKind]string)
		}
		if _, ok := cfg.Inputs[kind]; !ok {
			cfg.Inputs[kind] = location
		}
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = p.Registry
	}
	if len(cfg.Priority) == 0 && len(p.Priority) > 0 {
		cfg.Priority = append([]string(nil), p.Priority...)
	}
	for prefix, target := range p.PrefixAliases {
		if cfg.PrefixAliases == nil {
			cfg.PrefixAliases = make(map[string]string)
		}
		if _, ok := cfg.PrefixAliases[prefix]; !ok {
			cfg.PrefixAliases[prefix] = target
		}
	}
	if cfg.DefaultCompartment == "" {
		cfg.DefaultCompartment = p.DefaultCompartment
	}
	if len(cfg.PseudoElements) == 0 && len(p.PseudoElements) > 0 {
		cfg.PseudoElements = append([]string(nil), p.PseudoElements...)
	}
	if cfg.Workers == 0 {
		cfg.Workers = p.Workers
	}
	if p.MergeByInChIKey != nil {
		cfg.MergeByInChIKey = *p.MergeByInChIKey
	}
	if cfg.Sink == "" && p.Sink != "" {
		sink, err := mnx.ParseSinkKind(p.Sink)
		if err != nil {
			errs = append(errs, fmt.Errorf("sink: %w", err))
		} else {
			cfg.Sink = sink
		}
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = p.SQLitePath
	}
	if cfg.Timeout == 0 && p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("timeout %q: %w", p.Timeout, mnx.ErrInvalidConfig))
		} else {
			cfg.Timeout = d
		}
	}
	if cfg.DiagnosticsFile == "" {
		cfg.DiagnosticsFile = p.DiagnosticsFile
	}
	if cfg.MetricsFile == "" {
		cfg.MetricsFile = p.MetricsFile
	}
	return errors.Join(errs...)
}
