package gcal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Each listing page requests the maximum page size to keep the number of
// round trips down.
const listPageSize = "2500"

// Client talks to the Google Calendar REST API with a bearer token the
// caller already holds. Token acquisition and refresh happen outside this
// tool.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client authenticated with the given access token.
func NewClient(token string, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(context.Background(), src)
	c := resty.NewWithClient(hc).
		SetBaseURL(defaultBaseURL).
		SetTimeout(timeout)
	return &Client{http: c}
}

// NewClientWithBaseURL is NewClient pointed at a different API root, for
// tests against a local server.
func NewClientWithBaseURL(token string, timeout time.Duration, baseURL string) *Client {
	c := NewClient(token, timeout)
	c.http.SetBaseURL(baseURL)
	return c
}

type listResponse struct {
	Items         []*Event `json:"items"`
	NextPageToken string   `json:"nextPageToken"`
}

// ListEvents fetches every event in [timeMin, timeMax), following
// nextPageToken until the listing is exhausted.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*Event, error) {
	var all []*Event
	pageToken := ""

	for {
		params := map[string]string{
			"timeMin":      timeMin.UTC().Format(time.RFC3339),
			"timeMax":      timeMax.UTC().Format(time.RFC3339),
			"singleEvents": "true",
			"orderBy":      "startTime",
			"maxResults":   listPageSize,
		}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}

		var page listResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&page).
			Get(eventsPath(calendarID))
		if err != nil {
			return nil, fmt.Errorf("listing events: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("listing events: status %d: %s", resp.StatusCode(), resp.String())
		}

		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
		logger.Debug("fetching next page of events", "fetched", len(all))
	}

	return all, nil
}

// InsertEvent creates a new event and returns it as stored.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, ev *Event) (*Event, error) {
	var created Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(ev).
		SetResult(&created).
		Post(eventsPath(calendarID))
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("inserting event: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &created, nil
}

// UpdateEvent replaces the event identified by eventID.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, ev *Event) (*Event, error) {
	var updated Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(ev).
		SetResult(&updated).
		Put(eventsPath(calendarID) + "/" + url.PathEscape(eventID))
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("updating event: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &updated, nil
}

// DeleteEvent removes the event identified by eventID.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(eventsPath(calendarID) + "/" + url.PathEscape(eventID))
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("deleting event: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func eventsPath(calendarID string) string {
	return "/calendars/" + url.PathEscape(calendarID) + "/events"
}
