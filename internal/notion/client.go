// Package notion speaks the Notion database-query API directly. Only the
// handful of property shapes the bookmark database uses are decoded.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rswinton/marginalia/internal/model"
)

const apiVersion = "2022-06-28"

// Config holds the Notion integration credentials.
type Config struct {
	Token      string
	DatabaseID string
}

// Client queries one Notion database.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string
}

// NewClient creates a Notion client. timeout bounds each upstream request.
func NewClient(cfg Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.notion.com",
	}
}

// QueryParams select one page of the database.
type QueryParams struct {
	PageSize    int
	StartCursor string
	Search      string // title substring filter
}

// Page is one page of query results.
type Page struct {
	Bookmarks  []model.Bookmark
	HasMore    bool
	NextCursor string
}

type queryRequest struct {
	PageSize    int            `json:"page_size,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Properties struct {
			Name struct {
				Title []struct {
					PlainText string `json:"plain_text"`
				} `json:"title"`
			} `json:"Name"`
			Link struct {
				URL string `json:"url"`
			} `json:"Link"`
			Type struct {
				Select *struct {
					Name string `json:"name"`
				} `json:"select"`
			} `json:"Type"`
			Status struct {
				Select *struct {
					Name string `json:"name"`
				} `json:"select"`
				Status *struct {
					Name string `json:"name"`
				} `json:"status"`
			} `json:"Status"`
		} `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// Query fetches one page of bookmarks.
func (c *Client) Query(ctx context.Context, params QueryParams) (Page, error) {
	req := queryRequest{
		PageSize:    params.PageSize,
		StartCursor: params.StartCursor,
	}
	if params.Search != "" {
		req.Filter = map[string]any{
			"property": "Name",
			"title":    map[string]any{"contains": params.Search},
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Page{}, fmt.Errorf("marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, c.config.DatabaseID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	httpReq.Header.Set("Notion-Version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("notion query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Page{}, fmt.Errorf("notion API returned status %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return Page{}, fmt.Errorf("decode notion response: %w", err)
	}

	page := Page{
		HasMore:    qr.HasMore,
		NextCursor: qr.NextCursor,
	}
	for _, row := range qr.Results {
		b := model.Bookmark{ID: row.ID}
		if len(row.Properties.Name.Title) > 0 {
			b.Name = row.Properties.Name.Title[0].PlainText
		}
		b.Link = row.Properties.Link.URL
		if row.Properties.Type.Select != nil {
			b.Type = row.Properties.Type.Select.Name
		}
		// Status may be a legacy select or a native status property.
		if row.Properties.Status.Status != nil {
			b.Status = row.Properties.Status.Status.Name
		} else if row.Properties.Status.Select != nil {
			b.Status = row.Properties.Status.Select.Name
		}
		page.Bookmarks = append(page.Bookmarks, b)
	}
	return page, nil
}

// QueryAll follows cursors until the database is exhausted.
func (c *Client) QueryAll(ctx context.Context) ([]model.Bookmark, error) {
	var all []model.Bookmark
	cursor := ""
	for {
		page, err := c.Query(ctx, QueryParams{PageSize: 100, StartCursor: cursor})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Bookmarks...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return all, nil
}
