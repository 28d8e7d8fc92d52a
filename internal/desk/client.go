package desk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"propertylens_backend/internal/model"
)

// Relay is the subset of the backend the flows depend on.
type Relay interface {
	ParseProperty(ctx context.Context, files []UploadFile, lang string) (model.ParsedProperty, error)
	ParseText(ctx context.Context, text, lang string) (model.ParsedProperty, error)
	AssessRisk(ctx context.Context, p model.Property, lang string) (model.RiskAssessment, error)
	CorrectProperty(ctx context.Context, p model.Property, correction, lang string) (model.CorrectionResult, error)
	Analyze(ctx context.Context, prompt string) (string, error)
}

// UploadFile is one PDF ready to send.
type UploadFile struct {
	FileName  string `json:"fileName"`
	PDFBase64 string `json:"pdfBase64"`
}

// RelayError carries the backend's error reply. Error returns the
// user-facing message unchanged.
type RelayError struct {
	StatusCode  int
	Message     string
	Kind        string
	Details     string
	RawResponse string
}

func (e *RelayError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy that sends the bearer token on every request.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type errorReply struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	Details     string `json:"details"`
	RawResponse string `json:"rawResponse"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var reply errorReply
		if jsonErr := json.Unmarshal(raw, &reply); jsonErr != nil || reply.Error == "" {
			reply.Error = fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return &RelayError{
			StatusCode:  resp.StatusCode,
			Message:     reply.Error,
			Kind:        reply.Kind,
			Details:     reply.Details,
			RawResponse: reply.RawResponse,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", path, err)
	}
	return nil
}

func (c *Client) ParseProperty(ctx context.Context, files []UploadFile, lang string) (model.ParsedProperty, error) {
	var reply struct {
		Property model.ParsedProperty `json:"property"`
	}
	err := c.do(ctx, http.MethodPost, "/api/parse-property", map[string]interface{}{
		"files":    files,
		"language": lang,
	}, &reply)
	return reply.Property, err
}

func (c *Client) ParseText(ctx context.Context, text, lang string) (model.ParsedProperty, error) {
	var reply struct {
		Property model.ParsedProperty `json:"property"`
	}
	err := c.do(ctx, http.MethodPost, "/api/parse-text", map[string]string{
		"text":     text,
		"language": lang,
	}, &reply)
	return reply.Property, err
}

func (c *Client) AssessRisk(ctx context.Context, p model.Property, lang string) (model.RiskAssessment, error) {
	var reply struct {
		Risk model.RiskAssessment `json:"risk"`
	}
	err := c.do(ctx, http.MethodPost, "/api/assess-risk", map[string]interface{}{
		"property": p,
		"language": lang,
	}, &reply)
	return reply.Risk, err
}

func (c *Client) CorrectProperty(ctx context.Context, p model.Property, correction, lang string) (model.CorrectionResult, error) {
	var reply struct {
		Correction model.CorrectionResult `json:"correction"`
	}
	err := c.do(ctx, http.MethodPost, "/api/correct-property", map[string]interface{}{
		"property":   p,
		"correction": correction,
		"language":   lang,
	}, &reply)
	return reply.Correction, err
}

func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	var reply struct {
		Content string `json:"content"`
	}
	err := c.do(ctx, http.MethodPost, "/api/analyze", map[string]string{"prompt": prompt}, &reply)
	return reply.Content, err
}

// AuthResult is the register/login reply.
type AuthResult struct {
	Token string                 `json:"token"`
	User  map[string]interface{} `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"email": email, "password": password, "name": name,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}
