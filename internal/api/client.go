// Package api is the HTTP client for the POS assistant backend. The backend
// owns every entity this client displays; the client only reads snapshots and
// submits natural-language queries. All normalization of loosely-shaped
// payload fields happens here, at decode time, so nothing downstream ever
// branches on field presence.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout bounds the three panel fetches and the XP fetch.
	DefaultFetchTimeout = 5 * time.Second
	// DefaultQueryTimeout bounds POST /query, which waits on the backend's
	// model pipeline and is much slower than the snapshot reads.
	DefaultQueryTimeout = 60 * time.Second

	// PlaceholderReply is the compatibility fallback when a query response
	// carries neither a "message" nor a "response" field.
	PlaceholderReply = "No response received"
)

// ErrEmptyResponse means the backend answered 200 but the query payload held
// no usable content at all: no reply text, no intent, no agent.
var ErrEmptyResponse = errors.New("backend returned no usable content")

// FetchError is any transport-level failure: network error, timeout, non-2xx
// status, or an undecodable body. Status is the HTTP status when the backend
// answered, 0 otherwise.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Task is a backend-owned task snapshot. Priority is a free string on the
// wire; bucketing by the known High/Medium/Low values happens in the panels
// package.
type Task struct {
	Name     string `json:"name"`
	Priority string `json:"priority"`
	XP       int    `json:"xp"`
}

// Event is a calendar entry. The backend has shipped both title/summary and
// time/start variants of the same fields, so decoding resolves the ordered
// fallback chains into the fixed struct.
type Event struct {
	Title string
	Date  string
	Time  string
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Date    string `json:"date"`
		Time    string `json:"time"`
		Start   string `json:"start"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Title = firstNonEmpty(raw.Title, raw.Summary)
	e.Date = raw.Date
	e.Time = firstNonEmpty(raw.Time, raw.Start)
	return nil
}

// Memory is an opaque backend record. A JSON string is kept verbatim; any
// other JSON value is kept as its compact text form, which is also what the
// memory filter matches against.
type Memory string

func (m *Memory) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*m = Memory(text)
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		*m = Memory(strings.TrimSpace(string(data)))
		return nil
	}
	*m = Memory(compact.String())
	return nil
}

// XPSummary maps a role name to its accumulated XP.
type XPSummary map[string]int

// QueryResponse is the normalized result of POST /query.
type QueryResponse struct {
	Reply  string
	Intent string
	Agent  string
}

// Client issues the five backend operations. Two http.Clients carry the two
// timeout classes; a single attempt is made per call and failures never
// partially succeed.
type Client struct {
	baseURL string
	fetch   *http.Client
	query   *http.Client
}

func NewClient(baseURL string, fetchTimeout, queryTimeout time.Duration) *Client {
	if fetchTimeout < time.Second {
		fetchTimeout = DefaultFetchTimeout
	}
	if queryTimeout < time.Second {
		queryTimeout = DefaultQueryTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		fetch:   &http.Client{Timeout: fetchTimeout},
		query:   &http.Client{Timeout: queryTimeout},
	}
}

// BaseURL reports the normalized backend address, for display.
func (c *Client) BaseURL() string { return c.baseURL }

// Tasks fetches the current task snapshot.
func (c *Client) Tasks() ([]Task, error) {
	var parsed struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.getJSON("fetch tasks", "/tasks", &parsed); err != nil {
		return nil, err
	}
	return parsed.Tasks, nil
}

// Events fetches the current calendar snapshot.
func (c *Client) Events() ([]Event, error) {
	var parsed struct {
		Events []Event `json:"events"`
	}
	if err := c.getJSON("fetch events", "/events", &parsed); err != nil {
		return nil, err
	}
	return parsed.Events, nil
}

// Memories fetches the current memory snapshot.
func (c *Client) Memories() ([]Memory, error) {
	var parsed struct {
		Memories []Memory `json:"memories"`
	}
	if err := c.getJSON("fetch memories", "/memories", &parsed); err != nil {
		return nil, err
	}
	return parsed.Memories, nil
}

// XPSummary fetches per-role XP totals.
func (c *Client) XPSummary() (XPSummary, error) {
	var parsed struct {
		Data map[string]int `json:"data"`
	}
	if err := c.getJSON("fetch xp", "/xp_info", &parsed); err != nil {
		return nil, err
	}
	return XPSummary(parsed.Data), nil
}

// Query submits a prompt and normalizes the reply. The reply text is read
// from "message", then "response", then falls back to PlaceholderReply; a
// payload with none of message/response/intent/agent is ErrEmptyResponse.
func (c *Client) Query(prompt string) (QueryResponse, error) {
	const op = "submit query"
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return QueryResponse{}, &FetchError{Op: op, Err: err}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return QueryResponse{}, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	payload, err := c.do(c.query, op, req)
	if err != nil {
		return QueryResponse{}, err
	}
	var raw struct {
		Message  string `json:"message"`
		Response string `json:"response"`
		Intent   string `json:"intent"`
		Agent    string `json:"agent"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return QueryResponse{}, &FetchError{Op: op, Err: fmt.Errorf("invalid payload: %w", err)}
	}
	reply := firstNonEmpty(strings.TrimSpace(raw.Message), strings.TrimSpace(raw.Response))
	intent := strings.TrimSpace(raw.Intent)
	agent := strings.TrimSpace(raw.Agent)
	if reply == "" && intent == "" && agent == "" {
		return QueryResponse{}, ErrEmptyResponse
	}
	if reply == "" {
		reply = PlaceholderReply
	}
	return QueryResponse{Reply: reply, Intent: intent, Agent: agent}, nil
}

func (c *Client) getJSON(op, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	payload, err := c.do(c.fetch, op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("invalid payload: %w", err)}
	}
	return nil
}

func (c *Client) do(client *http.Client, op string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("http %d: %s", resp.StatusCode, bodySnippet(payload)),
		}
	}
	return payload, nil
}

func bodySnippet(payload []byte) string {
	text := strings.Join(strings.Fields(string(payload)), " ")
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
