package out

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"pomo/internal/modules/pomodoro/domain"
	apperrors "pomo/internal/platform/errors"
)

// PostgRESTRemoteStore talks to a hosted PostgREST endpoint such as the REST
// API of a Supabase project. Row ids are assigned by the server.
type PostgRESTRemoteStore struct {
	baseURL string
	table   string
	apiKey  string
	client  *http.Client
}

func NewPostgRESTRemoteStore(baseURL, table, apiKey string, timeout time.Duration) (*PostgRESTRemoteStore, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: remote url: %v", apperrors.ErrInvalidInput, err)
	}
	return &PostgRESTRemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		table:   table,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (s *PostgRESTRemoteStore) Create(ctx context.Context, record domain.SessionRecord) (domain.SessionRecord, error) {
	record.ID = ""
	record.CreatedAt = nil
	record.UpdatedAt = nil
	rows := []domain.SessionRecord{}
	if err := s.do(ctx, http.MethodPost, nil, record, &rows); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("create row: %w", err)
	}
	if len(rows) == 0 {
		return domain.SessionRecord{}, fmt.Errorf("create row: empty representation")
	}
	return rows[0], nil
}

func (s *PostgRESTRemoteStore) Update(ctx context.Context, rowID string, changes domain.SessionChanges) (domain.SessionRecord, error) {
	query := url.Values{"pomodoroId": {"eq." + rowID}}
	rows := []domain.SessionRecord{}
	if err := s.do(ctx, http.MethodPatch, query, changes, &rows); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("update row %s: %w", rowID, err)
	}
	if len(rows) == 0 {
		return domain.SessionRecord{}, apperrors.ErrNotFound
	}
	return rows[0], nil
}

func (s *PostgRESTRemoteStore) List(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	query := url.Values{
		"select": {"*"},
		"userId": {"eq." + userID},
		"order":  {"createdAt.desc"},
	}
	rows := []domain.SessionRecord{}
	if err := s.do(ctx, http.MethodGet, query, nil, &rows); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return rows, nil
}

func (s *PostgRESTRemoteStore) do(ctx context.Context, method string, query url.Values, body any, out any) error {
	endpoint := s.baseURL + "/" + s.table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", method, s.table, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
