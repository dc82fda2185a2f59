package params

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
)

func TestParseEnvFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "simple pairs",
			content:  "PGHOST=db.internal\nPGPORT=5433\n",
			expected: map[string]string{"PGHOST": "db.internal", "PGPORT": "5433"},
		},
		{
			name:     "comments, quotes and export",
			content:  "# connection\nexport PGUSER=\"loader\"\nMNXNORM_S3_ENDPOINT='http://localhost:9000'\n\n",
			expected: map[string]string{"PGUSER": "loader", "MNXNORM_S3_ENDPOINT": "http://localhost:9000"},
		},
		{
			name:     "empty",
			content:  "",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnvFile([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplyEnvFiles(t *testing.T) {
	t.Setenv("MNXNORM_TEST_PRESET", "kept")
	os.Unsetenv("MNXNORM_TEST_FIRST")
	os.Unsetenv("MNXNORM_TEST_SECOND")
	t.Cleanup(func() {
		os.Unsetenv("MNXNORM_TEST_FIRST")
		os.Unsetenv("MNXNORM_TEST_SECOND")
	})

	mem := filesystem.NewMemoryFileSystem()
	mem.AddFile("a.env", []byte("MNXNORM_TEST_PRESET=overwritten\nMNXNORM_TEST_FIRST=a\n"))
	mem.AddFile("b.env", []byte("MNXNORM_TEST_FIRST=b\nMNXNORM_TEST_SECOND=b\n"))

	exported, err := ApplyEnvFiles(mem, []string{"a.env", "b.env"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MNXNORM_TEST_FIRST", "MNXNORM_TEST_SECOND"}, exported)
	assert.Equal(t, "kept", os.Getenv("MNXNORM_TEST_PRESET"))
	assert.Equal(t, "a", os.Getenv("MNXNORM_TEST_FIRST"))
	assert.Equal(t, "b", os.Getenv("MNXNORM_TEST_SECOND"))
}

func TestApplyEnvFiles_MissingFile(t *testing.T) {
	_, err := ApplyEnvFiles(filesystem.NewMemoryFileSystem(), []string{"missing.env"})
	assert.Error(t, err)
}
