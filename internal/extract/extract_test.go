package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b\n\nc\td", "a b c d"},
		{"  leading and trailing  ", "leading and trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestLoadPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline  two\n"), 0o644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "line one line two", text)
}

func TestLoadRawKeepsStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	content := "# Title\n\nparagraph\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	text, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("report.docx")
	assert.Error(t, err)
}
