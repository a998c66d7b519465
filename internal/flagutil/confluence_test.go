package flagutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfluenceOptionsFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var o ConfluenceOptions
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddPFlags(fs)

	require.NoError(t, fs.Parse([]string{"--confluence-endpoint", "https://wiki.example.com"}))
	assert.Equal(t, "https://wiki.example.com", o.Endpoint)
	assert.Equal(t, "confluence-token", filepath.Base(o.BearerTokenFile))
	assert.NoError(t, o.Validate())
}

func TestConfluenceOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		options ConfluenceOptions
	}{
		{name: "no endpoint", options: ConfluenceOptions{BearerTokenFile: "token"}},
		{name: "no scheme", options: ConfluenceOptions{Endpoint: "wiki.example.com", BearerTokenFile: "token"}},
		{name: "no token file", options: ConfluenceOptions{Endpoint: "https://wiki.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.options.Validate())
		})
	}
}

func TestConfluenceOptionsToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  secret\n"), 0600))

	o := ConfluenceOptions{BearerTokenFile: path}
	token, err := o.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = (&ConfluenceOptions{BearerTokenFile: empty}).Token()
	assert.Error(t, err)

	_, err = (&ConfluenceOptions{BearerTokenFile: filepath.Join(dir, "missing")}).Token()
	assert.Error(t, err)
}
