package jira

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/andygrunwald/go-jira"

	"github.com/petr-muller/atlassian-search/internal/flagutil"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

// searchClient is the part of the prow Jira client we use
type searchClient interface {
	SearchWithContext(context.Context, string, *jira.SearchOptions) ([]jira.Issue, *jira.Response, error)
	JiraURL() string
}

// Client wraps the prow jira client with our specific functionality
type Client struct {
	jiraClient searchClient
}

// NewClient creates a new JIRA client using the existing flagutil pattern
func NewClient(jiraOptions flagutil.JiraOptions) (*Client, error) {
	jiraClient, err := jiraOptions.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA client: %w", err)
	}

	return newClientFor(jiraClient), nil
}

func newClientFor(jiraClient searchClient) *Client {
	return &Client{jiraClient: jiraClient}
}

// Search executes a JQL query and returns one page of matching issues together with the total match count
func (c *Client) Search(ctx context.Context, jql string, page storage.Page) ([]storage.Result, int, error) {
	options := &jira.SearchOptions{
		StartAt:    page.Start,
		MaxResults: page.Limit,
	}

	issues, response, err := c.jiraClient.SearchWithContext(ctx, jql, options)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute JQL query: %w", err)
	}

	result := make([]storage.Result, 0, len(issues))
	for _, issue := range issues {
		result = append(result, c.convertIssue(issue))
	}

	total := len(result)
	if response != nil && response.Total > 0 {
		total = response.Total
	}

	return result, total, nil
}

// convertIssue converts a go-jira Issue to our storage Result
func (c *Client) convertIssue(issue jira.Issue) storage.Result {
	result := storage.Result{
		Key: issue.Key,
		URL: c.browseURL(issue.Key),
	}

	fields := issue.Fields
	if fields == nil {
		return result
	}

	result.Title = fields.Summary
	result.Kind = fields.Type.Name
	result.Container = fields.Project.Key
	if fields.Status != nil {
		result.Status = fields.Status.Name
	}
	if fields.Assignee != nil {
		result.Owner = fields.Assignee.DisplayName
	}
	if len(fields.Labels) > 0 {
		result.Labels = make([]string, len(fields.Labels))
		copy(result.Labels, fields.Labels)
	}
	result.LastUpdated = time.Time(fields.Updated)

	return result
}

func (c *Client) browseURL(key string) string {
	browse, err := url.JoinPath(c.jiraClient.JiraURL(), "browse", key)
	if err != nil {
		return ""
	}
	return browse
}

// ValidateJQL validates a JQL query by attempting to execute it with a limit of 1
func (c *Client) ValidateJQL(ctx context.Context, jql string) error {
	options := &jira.SearchOptions{
		MaxResults: 1,
	}

	_, _, err := c.jiraClient.SearchWithContext(ctx, jql, options)
	if err != nil {
		return fmt.Errorf("invalid JQL query: %w", err)
	}

	return nil
}
