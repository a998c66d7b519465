package flagutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/petr-muller/atlassian-search/internal/config"
)

const confluenceTokenFileName string = "confluence-token"

// ConfluenceOptions holds the flags needed to talk to a Confluence instance
type ConfluenceOptions struct {
	Endpoint        string
	BearerTokenFile string
}

// AddPFlags injects Confluence options into the given pflag.FlagSet
func (o *ConfluenceOptions) AddPFlags(fs *pflag.FlagSet) {
	defaultTokenPath := filepath.Join(config.MustConfigDir(), confluenceTokenFileName)

	fs.StringVar(&o.Endpoint, "confluence-endpoint", "", "Confluence endpoint URL (defaults to confluence_endpoint from settings.yaml)")
	fs.StringVar(&o.BearerTokenFile, "confluence-bearer-token-file", defaultTokenPath, "Path to the file containing the Confluence bearer token")
}

// Validate checks that the options describe a usable Confluence instance
func (o *ConfluenceOptions) Validate() error {
	if o.Endpoint == "" {
		return errors.New("no Confluence endpoint configured")
	}
	parsed, err := url.Parse(o.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid Confluence endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid Confluence endpoint %q: scheme and host are required", o.Endpoint)
	}
	if o.BearerTokenFile == "" {
		return errors.New("no Confluence bearer token file configured")
	}
	return nil
}

// Token reads the bearer token from BearerTokenFile
func (o *ConfluenceOptions) Token() (string, error) {
	raw, err := os.ReadFile(o.BearerTokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read Confluence token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("Confluence token file %s is empty", o.BearerTokenFile)
	}
	return token, nil
}
