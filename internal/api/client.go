package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProgressAPI covers the course-progress endpoints.
type ProgressAPI interface {
	FetchCourseProgress(ctx context.Context, courseID string) (*CourseProgressResponse, error)
	UpdateLectureProgress(ctx context.Context, courseID, lectureID string, markComplete bool) error
}

// DetailAPI covers the course-detail endpoint.
type DetailAPI interface {
	FetchCourseDetail(ctx context.Context, courseID string) (*CourseDetailResponse, error)
}

// Backend is everything Lectern consumes from the platform API.
type Backend interface {
	ProgressAPI
	DetailAPI
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// ErrUnauthorized matches StatusError values for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// Client talks to the learning platform REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
	validate  *payloadValidator
}

const (
	defaultBaseURL   = "http://127.0.0.1:8080/api/v1"
	defaultUserAgent = "lectern/0.1"
	defaultTimeout   = 10 * time.Second
)

// NewClient builds a Client for the API rooted at baseURL. An empty token sends anonymous requests.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		token:     strings.TrimSpace(token),
		userAgent: defaultUserAgent,
		validate:  newPayloadValidator(),
	}, nil
}

// FetchCourseProgress retrieves the lecture list and authoritative progress set.
func (c *Client) FetchCourseProgress(ctx context.Context, courseID string) (*CourseProgressResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("course id required")
	}
	var payload CourseProgressResponse
	if err := c.do(ctx, http.MethodGet, []string{"course-progress", courseID}, nil, &payload); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateLectureProgress sets a lecture's completion flag on the server.
func (c *Client) UpdateLectureProgress(ctx context.Context, courseID, lectureID string, markComplete bool) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(lectureID) == "" {
		return fmt.Errorf("course and lecture id required")
	}
	body := UpdateProgressRequest{MarkComplete: markComplete}
	return c.do(ctx, http.MethodPost, []string{"course-progress", courseID, "lecture", lectureID}, body, nil)
}

// FetchCourseDetail retrieves the course description together with the viewer's purchase flag.
func (c *Client) FetchCourseDetail(ctx context.Context, courseID string) (*CourseDetailResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("course id required")
	}
	var payload CourseDetailResponse
	if err := c.do(ctx, http.MethodGet, []string{"course-detail", courseID}, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method string, segments []string, body, dest any) error {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	reqURL := c.baseURL.JoinPath(escaped...)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: "/" + strings.Join(escaped, "/"), Code: resp.StatusCode}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
