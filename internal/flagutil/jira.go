package flagutil

import (
	"flag"
	"path/filepath"

	"github.com/spf13/pflag"
	prowflagutil "sigs.k8s.io/prow/pkg/flagutil"

	"github.com/petr-muller/atlassian-search/internal/config"
)

const (
	tokenFileName string = "jira-token"

	defaultJiraEndpoint = "https://issues.redhat.com"
)

type JiraOptions struct {
	prowflagutil.JiraOptions
}

// AddFlags injects Jira options into the given FlagSet
func (o *JiraOptions) AddFlags(fs *flag.FlagSet) {
	configDir := config.MustConfigDir()
	defaultTokenPath := filepath.Join(configDir, tokenFileName)

	o.JiraOptions.AddCustomizedFlags(fs,
		prowflagutil.JiraDefaultEndpoint(defaultJiraEndpoint),
		prowflagutil.JiraDefaultBearerTokenFile(defaultTokenPath),
		prowflagutil.JiraNoBasicAuth(),
	)
}

// AddPFlags injects Jira options into the given pflag.FlagSet
func (o *JiraOptions) AddPFlags(fs *pflag.FlagSet) {
	goFlags := flag.NewFlagSet("jira", flag.ContinueOnError)
	o.AddFlags(goFlags)
	fs.AddGoFlagSet(goFlags)
}

func (o *JiraOptions) Validate() error {
	return o.JiraOptions.Validate(false)
}
