package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestCompletionsEndpoint(t *testing.T) {
	if got := completionsEndpoint("https://api.openai.com/v1"); got != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("endpoint=%q", got)
	}
	if got := completionsEndpoint("https://api.openai.com"); got != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("endpoint=%q", got)
	}
	if got := completionsEndpoint(""); got != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("endpoint=%q", got)
	}
}

func TestComplete_Success(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1", HTTP: srv.Client()}
	got, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hi there" {
		t.Fatalf("content=%q", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth=%q", gotAuth)
	}
	if gotBody.Model != "gpt-4.1" {
		t.Fatalf("model=%q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" || gotBody.Messages[0].Content != "hello" {
		t.Fatalf("messages=%+v", gotBody.Messages)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1", HTTP: srv.Client()}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1", HTTP: srv.Client()}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1", HTTP: srv.Client()}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on malformed body")
	}
}

func TestComplete_ConcurrentAsksShareOneClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	// HTTP deliberately nil: the default doer path must be safe for
	// one client shared by a goroutine per message.
	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1"}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Complete(context.Background(), "hello")
			if err != nil {
				t.Errorf("Complete: %v", err)
				return
			}
			if got != "ok" {
				t.Errorf("content=%q", got)
			}
		}()
	}
	wg.Wait()

	if c.HTTP != nil {
		t.Fatalf("Complete wrote to the shared HTTP field")
	}
}

func TestComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4.1"}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Fatalf("expected transport error")
	}
}
