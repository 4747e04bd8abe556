package sandbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpRuntime talks to a sandboxed code-execution provider over its REST
// surface: POST /sessions provisions, POST /sessions/{id}/exec runs code,
// DELETE /sessions/{id} releases.
type httpRuntime struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPRuntime creates a Runtime backed by a remote execution provider.
func NewHTTPRuntime(baseURL, apiKey string) Runtime {
	return &httpRuntime{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (r *httpRuntime) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sandbox provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *httpRuntime) CreateSession(ctx context.Context) (Session, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodPost, "/sessions", map[string]string{"template": "python"}, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("sandbox provider returned empty session id")
	}
	return &httpSession{runtime: r, id: created.ID}, nil
}

type httpSession struct {
	runtime *httpRuntime
	id      string
	closed  bool
}

func (s *httpSession) ID() string {
	return s.id
}

// execResponse mirrors the provider's execution result: rich outputs carry
// base64 image encodings alongside text, logs capture stdio line by line.
type execResponse struct {
	Results []struct {
		Text string `json:"text,omitempty"`
		PNG  string `json:"png,omitempty"`
		SVG  string `json:"svg,omitempty"`
	} `json:"results"`
	Logs struct {
		Stdout []string `json:"stdout"`
		Stderr []string `json:"stderr"`
	} `json:"logs"`
	Error *struct {
		Name      string `json:"name"`
		Value     string `json:"value"`
		Traceback string `json:"traceback"`
	} `json:"error,omitempty"`
}

func (s *httpSession) Run(ctx context.Context, code string) (*Execution, error) {
	var raw execResponse
	err := s.runtime.do(ctx, http.MethodPost, "/sessions/"+s.id+"/exec", map[string]string{"code": code}, &raw)
	if err != nil {
		return nil, err
	}

	exec := &Execution{
		Stdout: raw.Logs.Stdout,
		Stderr: raw.Logs.Stderr,
	}
	for _, res := range raw.Results {
		if res.Text != "" {
			exec.Text = append(exec.Text, res.Text)
		}
		if res.PNG != "" {
			if data, derr := base64.StdEncoding.DecodeString(res.PNG); derr == nil {
				exec.Images = append(exec.Images, Image{Format: "png", Data: data})
			}
		}
		if res.SVG != "" {
			exec.Images = append(exec.Images, Image{Format: "svg", Data: []byte(res.SVG)})
		}
	}
	if raw.Error != nil {
		exec.Error = &CodeError{
			Name:      raw.Error.Name,
			Value:     raw.Error.Value,
			Traceback: raw.Error.Traceback,
		}
	}
	return exec, nil
}

func (s *httpSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.runtime.do(ctx, http.MethodDelete, "/sessions/"+s.id, nil, nil)
}
