// Package client implements storage.Store against a remote BetaLog server,
// so a terminal timer or MCP process can record to a shared log over the
// network (typically a tailnet).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/storage"
)

const maxAttempts = 3

// Client calls the BetaLog REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	// backoff is the delay before the second attempt; it doubles after that.
	backoff time.Duration
}

var _ storage.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the base retry delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a Client targeting baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is a non-2xx response.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.status, e.message)
}

// do sends one request, retrying transport errors and 5xx responses with
// exponential backoff. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return storage.Failure(method+" "+path, ctx.Err())
			case <-time.After(delay):
			}
		}

		respBody, status, err := c.roundTrip(ctx, method, u, body)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if status >= 500 {
			lastErr = &apiError{status: status, message: errorMessage(respBody)}
			continue
		}
		if status >= 300 {
			return classify(method, path, &apiError{status: status, message: errorMessage(respBody)})
		}
		if out != nil && status != http.StatusNoContent {
			if err := json.Unmarshal(respBody, out); err != nil {
				return storage.Failure("decoding "+path, err)
			}
		}
		return nil
	}
	return storage.Failure(fmt.Sprintf("%s %s after %d attempts", method, path, maxAttempts), lastErr)
}

func (c *Client) roundTrip(ctx context.Context, method, u string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading body: %w", err)
	}
	return data, resp.StatusCode, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func classify(method, path string, err *apiError) error {
	switch err.status {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w: %s", method, path, storage.ErrNotFound, err.message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s %s: %w: %s", method, path, storage.ErrInvalidRecord, err.message)
	default:
		return storage.Failure(method+" "+path, err)
	}
}

// SaveSession posts a completed run. The server treats a repeated RunID as
// the same session, so retries are safe.
func (c *Client) SaveSession(ctx context.Context, s models.Session) (models.Session, error) {
	var saved models.Session
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, s, &saved)
	return saved, err
}

// ListSessions fetches sessions matching f. The date is evaluated in
// f.Location on the server.
func (c *Client) ListSessions(ctx context.Context, f models.SessionFilter) ([]models.Session, error) {
	params := url.Values{}
	if f.PresetName != "" {
		params.Set("preset", f.PresetName)
	}
	if f.Date != "" {
		params.Set("date", f.Date)
	}
	if f.Location != nil {
		params.Set("tz", f.Location.String())
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	var sessions []models.Session
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions", params, nil, &sessions)
	return sessions, err
}

func (c *Client) GetSession(ctx context.Context, id int64) (models.Session, error) {
	var s models.Session
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+strconv.FormatInt(id, 10), nil, nil, &s)
	return s, err
}

func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) SavePreset(ctx context.Context, name string, cfg models.TimerConfig) (models.Preset, error) {
	var p models.Preset
	err := c.do(ctx, http.MethodPost, "/api/v1/presets", nil, models.PresetRequest{Name: name, Config: cfg}, &p)
	return p, err
}

func (c *Client) ListPresets(ctx context.Context) ([]models.Preset, error) {
	var presets []models.Preset
	err := c.do(ctx, http.MethodGet, "/api/v1/presets", nil, nil, &presets)
	return presets, err
}

func (c *Client) GetPreset(ctx context.Context, id int64) (models.Preset, error) {
	var p models.Preset
	err := c.do(ctx, http.MethodGet, "/api/v1/presets/"+strconv.FormatInt(id, 10), nil, nil, &p)
	return p, err
}

func (c *Client) ReplacePreset(ctx context.Context, id int64, name string, cfg models.TimerConfig) (models.Preset, error) {
	var p models.Preset
	err := c.do(ctx, http.MethodPut, "/api/v1/presets/"+strconv.FormatInt(id, 10), nil,
		models.PresetRequest{Name: name, Config: cfg}, &p)
	return p, err
}

func (c *Client) DeletePreset(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/presets/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// SaveExercise posts an exercise log entry.
func (c *Client) SaveExercise(ctx context.Context, e models.Exercise) (models.Exercise, error) {
	var saved models.Exercise
	err := c.do(ctx, http.MethodPost, "/api/v1/exercises", nil, e, &saved)
	return saved, err
}

// ListExercises fetches exercises matching f.
func (c *Client) ListExercises(ctx context.Context, f models.ExerciseFilter) ([]models.Exercise, error) {
	params := url.Values{}
	if f.Name != "" {
		params.Set("name", f.Name)
	}
	if f.Date != "" {
		params.Set("date", f.Date)
	}
	if f.Location != nil {
		params.Set("tz", f.Location.String())
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	var exercises []models.Exercise
	err := c.do(ctx, http.MethodGet, "/api/v1/exercises", params, nil, &exercises)
	return exercises, err
}

func (c *Client) GetExercise(ctx context.Context, id int64) (models.Exercise, error) {
	var e models.Exercise
	err := c.do(ctx, http.MethodGet, "/api/v1/exercises/"+strconv.FormatInt(id, 10), nil, nil, &e)
	return e, err
}

func (c *Client) DeleteExercise(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/exercises/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) SaveWorkout(ctx context.Context, name string, exercises []string) (models.Workout, error) {
	var w models.Workout
	err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil,
		models.WorkoutRequest{Name: name, Exercises: exercises}, &w)
	return w, err
}

func (c *Client) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var workouts []models.Workout
	err := c.do(ctx, http.MethodGet, "/api/v1/workouts", nil, nil, &workouts)
	return workouts, err
}

func (c *Client) GetWorkout(ctx context.Context, id int64) (models.Workout, error) {
	var w models.Workout
	err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+strconv.FormatInt(id, 10), nil, nil, &w)
	return w, err
}

func (c *Client) DeleteWorkout(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workouts/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// GetSetting reports ok=false when the server has no value for key.
func (c *Client) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var s models.Setting
	err := c.do(ctx, http.MethodGet, "/api/v1/settings/"+url.PathEscape(key), nil, nil, &s)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/settings/"+url.PathEscape(key), nil,
		models.Setting{Key: key, Value: value}, nil)
}

// Close implements storage.Store.
func (c *Client) Close() error {
	return nil
}
