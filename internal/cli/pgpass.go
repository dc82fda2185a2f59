package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// pgpassPath returns the file libpq and pgx read passwords from.
func pgpassPath() string {
	if custom := os.Getenv("PGPASSFILE"); custom != "" {
		return custom
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "postgresql", "pgpass.conf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// offerSavePgpass asks whether to store the wizard's password in .pgpass so
// later runs need neither $PGPASSWORD nor a connection string. Nothing
// happens when the password is empty or the answer is no.
func offerSavePgpass(cfg *mnx.ConnectionConfig, in io.Reader, out io.Writer) bool {
	if cfg.Password == "" {
		return false
	}
	fmt.Fprintln(out)
	if !promptYesNo(in, out, "Save password to .pgpass for future runs?") {
		fmt.Fprintln(out, "Tip: provide the password via $PGPASSWORD, .pgpass, or a connection string.")
		return false
	}
	if err := writePgpassEntry(cfg); err != nil {
		fmt.Fprintf(out, "Warning: failed to save .pgpass: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Saved to %s\n", pgpassPath())
	return true
}

// promptYesNo defaults to yes on an empty answer.
func promptYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [Y/n]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// writePgpassEntry replaces the entry for host:port:database:user or
// appends one. The file is written with mode 0600 as libpq requires.
func writePgpassEntry(cfg *mnx.ConnectionConfig) error {
	path := pgpassPath()
	if path == "" {
		return errors.New("cannot determine home directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	key := strings.Join([]string{
		escapePgpass(cfg.Host),
		strconv.Itoa(cfg.Port),
		escapePgpass(cfg.Database),
		escapePgpass(cfg.Username),
	}, ":") + ":"
	entry := key + escapePgpass(cfg.Password)

	var lines []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read existing .pgpass: %w", err)
	}

	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, key) {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

// escapePgpass escapes the two characters .pgpass treats specially.
func escapePgpass(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `:`, `\:`)
}
