// Package wizards collects sink settings interactively for mnxnorm init.
package wizards

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/internal/tui/components"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ErrCancelled is returned when the user leaves the wizard early.
var ErrCancelled = errors.New("wizard cancelled")

// Field keys of the PostgreSQL form.
const (
	FieldHost     = "host"
	FieldPort     = "port"
	FieldDatabase = "database"
	FieldUser     = "user"
	FieldPassword = "password"
	FieldSSLMode  = "sslmode"
)

const (
	DefaultSQLitePath = "mnxnorm.db"
	defaultPort       = 5432
)

// SinkResult is what the wizard collected.
type SinkResult struct {
	Sink       mnx.SinkKind
	SQLitePath string
	Connection mnx.ConnectionConfig
}

// ApplyTo copies the collected settings into cfg.
func (r SinkResult) ApplyTo(cfg *mnx.InitConfig) {
	cfg.Sink = r.Sink
	switch r.Sink {
	case mnx.SinkSQLite:
		cfg.SQLitePath = r.SQLitePath
	case mnx.SinkPostgres:
		cfg.ConnectionString = ""
		cfg.Connection = r.Connection
	}
}

// SinkSelector offers the two persistent backends.
func SinkSelector() components.Selector {
	return components.NewSelector("Where should mnxnorm load the entity graph?", []components.Option{
		{Label: "PostgreSQL", Description: "Shared database, supports cloud IAM auth", Value: string(mnx.SinkPostgres)},
		{Label: "SQLite file", Description: "Single local file, no server needed", Value: string(mnx.SinkSQLite)},
	})
}

// PostgresForm asks for standard connection parameters, prefilled from
// defaults where set.
func PostgresForm(defaults mnx.ConnectionConfig) components.Form {
	port := strconv.Itoa(defaultPort)
	if defaults.Port > 0 {
		port = strconv.Itoa(defaults.Port)
	}
	return components.NewForm("PostgreSQL connection",
		components.NewTextField(FieldHost, "Host", "localhost").WithValue(orDefault(defaults.Host, "localhost")).WithRequired(),
		components.NewTextField(FieldPort, "Port", "5432").WithValue(port).WithValidator(validatePort),
		components.NewTextField(FieldDatabase, "Database", "mnx").WithValue(defaults.Database).WithRequired(),
		components.NewTextField(FieldUser, "User", "postgres").WithValue(defaults.Username),
		components.NewTextField(FieldPassword, "Password", "").WithValue(defaults.Password).WithPassword(),
		components.NewTextField(FieldSSLMode, "SSL mode", "prefer").WithValue(orDefault(defaults.SSLMode, "prefer")),
	)
}

// ConnectionFromValues builds a standard-auth ConnectionConfig from
// PostgresForm values.
func ConnectionFromValues(values map[string]string) (mnx.ConnectionConfig, error) {
	port := defaultPort
	if raw := values[FieldPort]; raw != "" {
		if err := validatePort(raw); err != nil {
			return mnx.ConnectionConfig{}, fmt.Errorf("invalid port %q: %w", raw, mnx.ErrInvalidConfig)
		}
		port, _ = strconv.Atoi(raw)
	}
	if values[FieldDatabase] == "" {
		return mnx.ConnectionConfig{}, fmt.Errorf("database is required: %w", mnx.ErrInvalidConfig)
	}
	return mnx.ConnectionConfig{
		Host:       orDefault(values[FieldHost], "localhost"),
		Port:       port,
		Database:   values[FieldDatabase],
		Username:   values[FieldUser],
		Password:   values[FieldPassword],
		SSLMode:    orDefault(values[FieldSSLMode], "prefer"),
		AuthMethod: mnx.AuthMethodStandard,
	}, nil
}

func validatePort(raw string) error {
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 || p > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// PathPrompt asks for the SQLite file with Tab completion over
// directories and database files.
type PathPrompt struct {
	input     textinput.Model
	completer *components.PathCompleter
	keys      tui.PromptKeyMap
	accepted  bool
	cancelled bool
}

func NewPathPrompt(initial string) PathPrompt {
	ti := textinput.New()
	ti.Placeholder = DefaultSQLitePath
	ti.SetValue(initial)
	ti.Width = 56
	ti.Focus()
	return PathPrompt{
		input:     ti,
		completer: components.NewPathCompleter(".db", ".sqlite", ".sqlite3"),
		keys:      tui.DefaultPromptKeyMap(),
	}
}

func (p PathPrompt) Init() tea.Cmd { return textinput.Blink }

func (p PathPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, p.keys.Complete):
			p.input.SetValue(p.completer.Next(p.input.Value()))
			p.input.CursorEnd()
			return p, nil
		case key.Matches(km, p.keys.Accept):
			p.accepted = true
			return p, tea.Quit
		case key.Matches(km, p.keys.Cancel):
			p.cancelled = true
			return p, tea.Quit
		}
		p.completer.Reset()
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p PathPrompt) View() string {
	return tui.TitleStyle.Render("SQLite database file") + "\n" +
		p.input.View() + "\n\n" +
		tui.MutedStyle.Render(p.keys.HelpText())
}

// Path returns the entered path, or DefaultSQLitePath when left blank.
func (p PathPrompt) Path() string {
	return orDefault(strings.TrimSpace(p.input.Value()), DefaultSQLitePath)
}

func (p PathPrompt) Accepted() bool  { return p.accepted }
func (p PathPrompt) Cancelled() bool { return p.cancelled }

// RunSinkWizard walks the user through picking a sink and its settings.
// defaults prefills whatever flags already supplied.
func RunSinkWizard(in io.Reader, out io.Writer, defaults mnx.InitConfig) (SinkResult, error) {
	opts := []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}

	final, err := tea.NewProgram(SinkSelector(), opts...).Run()
	if err != nil {
		return SinkResult{}, fmt.Errorf("sink selection failed: %w", err)
	}
	selector := final.(components.Selector)
	if !selector.Submitted() {
		return SinkResult{}, ErrCancelled
	}

	if mnx.SinkKind(selector.Value()) == mnx.SinkSQLite {
		final, err := tea.NewProgram(NewPathPrompt(orDefault(defaults.SQLitePath, DefaultSQLitePath)), opts...).Run()
		if err != nil {
			return SinkResult{}, fmt.Errorf("path prompt failed: %w", err)
		}
		prompt := final.(PathPrompt)
		if !prompt.Accepted() {
			return SinkResult{}, ErrCancelled
		}
		return SinkResult{Sink: mnx.SinkSQLite, SQLitePath: prompt.Path()}, nil
	}

	final, err = tea.NewProgram(PostgresForm(defaults.Connection), opts...).Run()
	if err != nil {
		return SinkResult{}, fmt.Errorf("connection form failed: %w", err)
	}
	form := final.(components.Form)
	if !form.Submitted() {
		return SinkResult{}, ErrCancelled
	}
	conn, err := ConnectionFromValues(form.Values())
	if err != nil {
		return SinkResult{}, err
	}
	return SinkResult{Sink: mnx.SinkPostgres, Connection: conn}, nil
}
