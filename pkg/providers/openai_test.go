package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "deepseek-coder" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "Here is code:\n` + "```" + `python\nprint(2)\n` + "```" + `"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer server.Close()

	client := NewCompatibleClient("test-key", "deepseek-coder", server.URL, false)

	resp, err := client.Complete(context.Background(), []core.Message{
		{Role: "system", Content: "You are a data scientist"},
		{Role: "user", Content: "print 2"},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 7 {
		t.Errorf("usage = %d/%d, want 12/7", resp.PromptTokens, resp.CompletionTokens)
	}
	if resp.Content == "" {
		t.Error("empty content")
	}
}

func TestOpenAIClient_CompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewCompatibleClient("bad-key", "deepseek-chat", server.URL, false)

	if _, err := client.Complete(context.Background(), []core.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("Complete() succeeded, want api error")
	}
}

func TestOpenAIClient_CompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewCompatibleClient("test-key", "deepseek-chat", server.URL, false)

	if _, err := client.Complete(context.Background(), []core.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("Complete() succeeded, want no-choices error")
	}
}

func TestNewDeepSeekClient(t *testing.T) {
	client := NewDeepSeekClient("test-key", "deepseek-coder", false)
	if client.baseURL != "https://api.deepseek.com" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
	if client.model != "deepseek-coder" {
		t.Errorf("model = %q", client.model)
	}
}

func TestOpenAIResponse_Unmarshal(t *testing.T) {
	jsonResp := `{
		"choices": [{"message": {"content": "Hello"}}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
	}`

	var resp openaiResponse
	if err := json.Unmarshal([]byte(jsonResp), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "Hello" {
		t.Errorf("choices = %+v", resp.Choices)
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 8 {
		t.Errorf("usage mismatch: %+v", resp.Usage)
	}
}
