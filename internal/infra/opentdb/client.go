package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"trivia-quiz-service/internal/domain"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

const maxBodyBytes = 1 << 20

// Open Trivia DB response codes.
const (
	codeSuccess   = 0
	codeRateLimit = 5
)

const responseSchema = `{
  "type": "object",
  "required": ["response_code", "results"],
  "properties": {
    "response_code": {"type": "integer"},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "correct_answer", "incorrect_answers"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "correct_answer": {"type": "string", "minLength": 1},
          "incorrect_answers": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

type response struct {
	ResponseCode int                     `json:"response_code"`
	Results      []domain.SourceQuestion `json:"results"`
}

// Client is the HTTP question source backed by Open Trivia DB.
type Client struct {
	baseURL    string
	httpClient *http.Client
	schema     *gojsonschema.Schema
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
	}, nil
}

// RequestKey returns the fully resolved request URL.
func (c *Client) RequestKey(req domain.QuestionRequest) string {
	u, _ := url.Parse(c.baseURL)
	q := u.Query()
	q.Set("amount", strconv.Itoa(req.Count))
	q.Set("type", "multiple")
	if id := domain.CategoryID(req.Category); id != "" {
		q.Set("category", id)
	}
	if req.Difficulty != "" {
		q.Set("difficulty", string(req.Difficulty))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchQuestions requests one batch and returns it with HTML entities decoded.
func (c *Client) FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.SourceQuestion, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestKey(req), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceUnavailable, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrSourceUnavailable, err)
	}
	if err := c.validate(body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrSourceUnavailable, err)
	}
	switch payload.ResponseCode {
	case codeSuccess:
	case codeRateLimit:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: response code %d", domain.ErrSourceUnavailable, payload.ResponseCode)
	}

	out := make([]domain.SourceQuestion, len(payload.Results))
	for i, item := range payload.Results {
		incorrect := make([]string, len(item.IncorrectAnswers))
		for j, a := range item.IncorrectAnswers {
			incorrect[j] = html.UnescapeString(a)
		}
		out[i] = domain.SourceQuestion{
			Question:         html.UnescapeString(item.Question),
			CorrectAnswer:    html.UnescapeString(item.CorrectAnswer),
			IncorrectAnswers: incorrect,
		}
	}
	return out, nil
}

func (c *Client) validate(body []byte) error {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed payload: %v", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("payload does not match schema: %s", strings.Join(msgs, "; "))
}
