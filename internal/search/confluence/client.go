package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andygrunwald/go-jira"

	"github.com/petr-muller/atlassian-search/internal/flagutil"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

const (
	searchPath = "rest/api/search"
	expand     = "content.space,content.history,content.metadata.labels"
)

// Client runs CQL searches against the Confluence REST API
type Client struct {
	restClient *jira.Client
	endpoint   string
}

// NewClient creates a Confluence client authenticating with the bearer token from the options
func NewClient(options flagutil.ConfluenceOptions) (*Client, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	token, err := options.Token()
	if err != nil {
		return nil, err
	}

	transport := jira.BearerAuthTransport{Token: token}
	return newClientFor(transport.Client(), options.Endpoint)
}

func newClientFor(httpClient *http.Client, endpoint string) (*Client, error) {
	restClient, err := jira.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create Confluence client: %w", err)
	}

	return &Client{
		restClient: restClient,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
	}, nil
}

type searchResponse struct {
	Results   []searchResult `json:"results"`
	Start     int            `json:"start"`
	Limit     int            `json:"limit"`
	Size      int            `json:"size"`
	TotalSize int            `json:"totalSize"`
	Links     struct {
		Base string `json:"base"`
	} `json:"_links"`
}

type searchResult struct {
	EntityType   string   `json:"entityType"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	LastModified string   `json:"lastModified"`
	Content      *content `json:"content,omitempty"`
	Space        *space   `json:"space,omitempty"`
	User         *user    `json:"user,omitempty"`

	ResultGlobalContainer struct {
		Title string `json:"title"`
	} `json:"resultGlobalContainer"`
}

type content struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Title   string `json:"title"`
	Space   *space `json:"space,omitempty"`
	History *struct {
		CreatedBy *user `json:"createdBy,omitempty"`
	} `json:"history,omitempty"`
	Metadata *struct {
		Labels struct {
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		} `json:"labels"`
	} `json:"metadata,omitempty"`
}

type space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type user struct {
	Username    string `json:"username"`
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Search executes a CQL query and returns one page of results together with the total match count
func (c *Client) Search(ctx context.Context, cql string, page storage.Page) ([]storage.Result, int, error) {
	params := url.Values{}
	params.Set("cql", cql)
	params.Set("start", strconv.Itoa(page.Start))
	params.Set("limit", strconv.Itoa(page.Limit))
	params.Set("expand", expand)

	req, err := c.restClient.NewRequestWithContext(ctx, http.MethodGet, searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build CQL search request: %w", err)
	}

	var response searchResponse
	resp, err := c.restClient.Do(req, &response)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute CQL query: %w", describeError(resp, err))
	}

	base := response.Links.Base
	if base == "" {
		base = c.endpoint
	}

	results := make([]storage.Result, 0, len(response.Results))
	for _, item := range response.Results {
		results = append(results, convertResult(item, base))
	}

	total := response.TotalSize
	if total < len(results) {
		total = len(results)
	}

	return results, total, nil
}

// describeError extracts the message Confluence puts in error bodies
func describeError(resp *jira.Response, err error) error {
	if resp == nil || resp.Response == nil || resp.Body == nil {
		return err
	}
	defer resp.Body.Close()

	var body errorResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil || body.Message == "" {
		return err
	}
	return fmt.Errorf("%s (status %d)", body.Message, resp.StatusCode)
}

func convertResult(item searchResult, base string) storage.Result {
	result := storage.Result{
		Title:     item.Title,
		Kind:      item.EntityType,
		Container: item.ResultGlobalContainer.Title,
	}
	if item.URL != "" {
		result.URL = base + item.URL
	}
	if item.LastModified != "" {
		if parsed, err := time.Parse(time.RFC3339, item.LastModified); err == nil {
			result.LastUpdated = parsed
		}
	}

	switch {
	case item.Content != nil:
		result.Key = item.Content.ID
		result.Kind = item.Content.Type
		result.Status = item.Content.Status
		if result.Title == "" {
			result.Title = item.Content.Title
		}
		if item.Content.Space != nil {
			result.Container = item.Content.Space.Key
		}
		if item.Content.History != nil && item.Content.History.CreatedBy != nil {
			result.Owner = item.Content.History.CreatedBy.DisplayName
		}
		if item.Content.Metadata != nil {
			for _, label := range item.Content.Metadata.Labels.Results {
				result.Labels = append(result.Labels, label.Name)
			}
		}
	case item.Space != nil:
		result.Key = item.Space.Key
		result.Kind = "space"
		result.Container = item.Space.Type
		if result.Title == "" {
			result.Title = item.Space.Name
		}
	case item.User != nil:
		result.Key = item.User.Username
		if result.Key == "" {
			result.Key = item.User.AccountID
		}
		result.Kind = "user"
		if result.Title == "" {
			result.Title = item.User.DisplayName
		}
	}

	if result.Key == "" {
		result.Key = result.URL
	}

	return result
}
