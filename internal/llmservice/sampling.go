package llmservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"instrit/internal/config"
)

// samplingDoer adds the OpenRouter sampling fields (max_tokens, top_p,
// top_k, repetition_penalty) to chat completion requests. Fields already in
// the body win.
type samplingDoer struct {
	next     *http.Client
	sampling config.SamplingConfig
}

func (d *samplingDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Body == nil || !strings.HasSuffix(req.URL.Path, "/chat/completions") {
		return d.next.Do(req)
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	data, err = d.extend(data)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(data))
	out.ContentLength = int64(len(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return d.next.Do(out)
}

func (d *samplingDoer) extend(data []byte) ([]byte, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode chat request: %w", err)
	}
	set := func(key string, value any) {
		if _, ok := body[key]; !ok {
			body[key] = value
		}
	}
	if v, ok := body["max_completion_tokens"]; ok {
		set("max_tokens", v)
	}
	if d.sampling.TopP > 0 {
		set("top_p", d.sampling.TopP)
	}
	if d.sampling.TopK > 0 {
		set("top_k", d.sampling.TopK)
	}
	if d.sampling.RepetitionPenalty > 0 {
		set("repetition_penalty", d.sampling.RepetitionPenalty)
	}
	return json.Marshal(body)
}
