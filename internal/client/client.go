// Package client is the Go client of the StackIt HTTP API and the session
// store built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/services"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// APIError is a non-2xx response. It unwraps to the apperrors sentinel
// matching its status code.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return (&apperrors.ValidationError{Fields: e.Fields}).Error()
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return apperrors.ErrValidation
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return apperrors.ErrBackendUnavailable
	}
	return nil
}

// Client calls the StackIt API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for the API rooted at baseURL. A nil httpClient
// uses one with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetToken sets the bearer token sent with every request. "" sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, apperrors.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Auth

func (c *Client) SignUp(ctx context.Context, input services.SignUpInput) (*services.AuthSession, error) {
	var out services.AuthSession
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*services.AuthSession, error) {
	var out services.AuthSession
	input := services.SignInInput{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMe(ctx context.Context, input services.ProfileInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/api/me", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Questions

func (c *Client) ListQuestions(ctx context.Context, filter store.QuestionFilter, page, pageSize int) (*services.Page[services.QuestionSummary], error) {
	query := url.Values{}
	if filter.SearchText != "" {
		query.Set("q", filter.SearchText)
	}
	if len(filter.Tags) > 0 {
		query.Set("tags", strings.Join(filter.Tags, ","))
	}
	if filter.UnansweredOnly {
		query.Set("unanswered", "true")
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var out services.Page[services.QuestionSummary]
	if err := c.do(ctx, http.MethodGet, "/api/questions", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetQuestion(ctx context.Context, id uuid.UUID) (*services.QuestionDetail, error) {
	var out services.QuestionDetail
	if err := c.do(ctx, http.MethodGet, "/api/questions/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateQuestion(ctx context.Context, input services.QuestionInput) (*services.QuestionDetail, error) {
	var out services.QuestionDetail
	if err := c.do(ctx, http.MethodPost, "/api/questions", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAnswer(ctx context.Context, questionID uuid.UUID, body string) (*models.Answer, error) {
	var out models.Answer
	path := "/api/questions/" + questionID.String() + "/answers"
	if err := c.do(ctx, http.MethodPost, path, nil, services.AnswerInput{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptAnswer(ctx context.Context, answerID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/answers/"+answerID.String()+"/accept", nil, nil, nil)
}

func (c *Client) Vote(ctx context.Context, kind models.TargetKind, targetID uuid.UUID, direction models.Direction) (*services.VoteResult, error) {
	body := map[string]any{
		"target_kind": kind,
		"target_id":   targetID,
		"direction":   direction,
	}
	var out services.VoteResult
	if err := c.do(ctx, http.MethodPost, "/api/votes", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notifications

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, page, pageSize int) (*services.Page[models.Notification], error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread", "true")
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var out services.Page[models.Notification]
	if err := c.do(ctx, http.MethodGet, "/api/notifications", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+id.String()+"/read", nil, nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}
