package rolloutctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/edvin/rollout/internal/model"
)

// Logs prints the deployment's whole log.
func (c *Client) Logs(ctx context.Context, id string, w io.Writer) error {
	var after int64
	for {
		resp, err := c.Get(ctx, fmt.Sprintf("/deployments/%s/logs?after=%d", url.PathEscape(id), after))
		if err != nil {
			return err
		}
		var page struct {
			Entries []model.LogEntry `json:"entries"`
			Next    int64            `json:"next"`
			HasMore bool             `json:"has_more"`
		}
		if err := resp.Decode(&page); err != nil {
			return err
		}
		for _, e := range page.Entries {
			printLogEntry(w, e)
		}
		if !page.HasMore {
			return nil
		}
		after = page.Next
	}
}

// Follow streams the deployment's log over a WebSocket until the deployment
// finishes or ctx ends.
func (c *Client) Follow(ctx context.Context, id string, w io.Writer) error {
	u, err := streamURL(c.BaseURL, id, 0)
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.Operator != "" {
		header.Set("X-Operator", c.Operator)
	}
	ws, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("open log stream: %w", err)
	}
	defer ws.CloseNow()

	for {
		var e model.LogEntry
		err := wsjson.Read(ctx, ws, &e)
		switch {
		case err == nil:
			printLogEntry(w, e)
		case websocket.CloseStatus(err) == websocket.StatusNormalClosure:
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("read log stream: %w", err)
		}
	}
}

func streamURL(baseURL, id string, after int64) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse API URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/deployments/" + id + "/logs/stream"
	u.RawQuery = url.Values{"after": {strconv.FormatInt(after, 10)}}.Encode()
	return u.String(), nil
}

func printLogEntry(w io.Writer, e model.LogEntry) {
	phase := ""
	if e.Phase != "" {
		phase = " [" + e.Phase + "]"
	}
	fmt.Fprintf(w, "%s %-5s%s %s\n", e.Timestamp.Format("15:04:05"), strings.ToUpper(e.Level), phase, e.Message)
}
