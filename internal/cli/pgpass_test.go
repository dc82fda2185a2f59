package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func TestEscapePgpass(t *testing.T) {
	tests := []struct{ input, want string }{
		{"simple", "simple"},
		{"pass:word", `pass\:word`},
		{`back\slash`, `back\\slash`},
		{`both\:chars`, `both\\\:chars`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapePgpass(tt.input), tt.input)
	}
}

func loaderConn(password string) *mnx.ConnectionConfig {
	return &mnx.ConnectionConfig{Host: "localhost", Port: 5432, Database: "metanetx", Username: "loader", Password: password}
}

func TestWritePgpassEntry(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     []string
	}{
		{
			name: "new file",
			want: []string{"localhost:5432:metanetx:loader:s3cret"},
		},
		{
			name:     "replaces matching entry",
			existing: "db.internal:5432:other:etl:old\nlocalhost:5432:metanetx:loader:old\n",
			want:     []string{"db.internal:5432:other:etl:old", "localhost:5432:metanetx:loader:s3cret"},
		},
		{
			name:     "appends new entry",
			existing: "db.internal:5432:other:etl:old\n",
			want:     []string{"db.internal:5432:other:etl:old", "localhost:5432:metanetx:loader:s3cret"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", "pgpass.conf")
			t.Setenv("PGPASSFILE", path)
			if tt.existing != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
				require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0o600))
			}

			require.NoError(t, writePgpassEntry(loaderConn("s3cret")))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Split(strings.TrimRight(string(data), "\n"), "\n"))
		})
	}
}

func TestOfferSavePgpass(t *testing.T) {
	tests := []struct {
		name     string
		password string
		answer   string
		saved    bool
	}{
		{"default yes", "s3cret", "\n", true},
		{"explicit no", "s3cret", "n\n", false},
		{"no password", "", "y\n", false},
		{"closed input", "s3cret", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pgpass.conf")
			t.Setenv("PGPASSFILE", path)
			var out bytes.Buffer

			got := offerSavePgpass(loaderConn(tt.password), strings.NewReader(tt.answer), &out)

			assert.Equal(t, tt.saved, got)
			_, statErr := os.Stat(path)
			assert.Equal(t, tt.saved, statErr == nil)
		})
	}
}
