// Package devops wraps the Azure DevOps work item REST API.
package devops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const apiVersion = "7.1"

// WorkItemInput describes a work item to create.
type WorkItemInput struct {
	Project      string
	WorkItemType string
	Title        string
	Description  string
	AreaPath     string
	Priority     int
	Tags         string
}

// WorkItem is the normalized reference returned after creation.
type WorkItem struct {
	ID      int
	URL     string
	Rev     int
	Type    string
	Project string
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type createResponse struct {
	ID    int `json:"id"`
	Rev   int `json:"rev"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"_links"`
}

// Client creates work items in Azure DevOps. Safe for concurrent use.
type Client struct {
	orgURL     string
	authHeader string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for the given organization. The PAT may be
// empty; creation calls will then fail with an auth error from the API.
func NewClient(orgURL, pat string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		orgURL:     strings.TrimRight(orgURL, "/"),
		authHeader: buildAuthHeader(pat),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func buildAuthHeader(pat string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(":" + pat))
	return "Basic " + encoded
}

// CreateWorkItem creates a work item via the JSON Patch endpoint and
// returns the normalized reference. Any transport failure, non-2xx status
// or malformed body is an error; callers treat that as fatal to the
// submission.
func (c *Client) CreateWorkItem(ctx context.Context, input WorkItemInput) (*WorkItem, error) {
	endpoint := fmt.Sprintf("%s/%s/_apis/wit/workitems/$%s?api-version=%s",
		c.orgURL, url.PathEscape(input.Project), url.PathEscape(input.WorkItemType), apiVersion)

	ops := []patchOp{
		{Op: "add", Path: "/fields/System.Title", Value: input.Title},
		{Op: "add", Path: "/fields/System.Description", Value: input.Description},
		{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Priority", Value: input.Priority},
	}
	if input.AreaPath != "" {
		ops = append(ops, patchOp{Op: "add", Path: "/fields/System.AreaPath", Value: input.AreaPath})
	}
	if input.Tags != "" {
		ops = append(ops, patchOp{Op: "add", Path: "/fields/System.Tags", Value: input.Tags})
	}

	body, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encode patch document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json-patch+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("devops request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		c.logger.Error("devops API error",
			zap.Int("status", resp.StatusCode),
			zap.String("project", input.Project),
			zap.ByteString("body", snippet))
		return nil, fmt.Errorf("azure devops returned %d", resp.StatusCode)
	}

	var parsed createResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode devops response: %w", err)
	}
	if parsed.ID == 0 {
		return nil, fmt.Errorf("devops response missing work item id")
	}

	rev := parsed.Rev
	if rev == 0 {
		rev = 1
	}

	c.logger.Info("created work item",
		zap.String("type", input.WorkItemType),
		zap.Int("id", parsed.ID),
		zap.String("project", input.Project))

	return &WorkItem{
		ID:      parsed.ID,
		URL:     parsed.Links.HTML.Href,
		Rev:     rev,
		Type:    input.WorkItemType,
		Project: input.Project,
	}, nil
}
