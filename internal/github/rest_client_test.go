package gh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRESTClientGetUser(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/api/v3/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET method, got %s", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"login": "octocat",
			"name":  "The Octocat",
			"email": "octocat@example.com",
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	factory := NewRESTFactory(server.URL + "/api/v3")
	client, err := factory.New(context.Background(), "token")
	if err != nil {
		t.Fatalf("factory.New returned error: %v", err)
	}

	user, err := client.GetUser(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}

	if user.Login != "octocat" || user.Name != "The Octocat" || user.Email != "octocat@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestRESTClientGetUserNotFound(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/api/v3/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	factory := NewRESTFactory(server.URL + "/api/v3")
	client, err := factory.New(context.Background(), "token")
	if err != nil {
		t.Fatalf("factory.New returned error: %v", err)
	}

	if _, err := client.GetUser(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRESTFactoryRequiresToken(t *testing.T) {
	factory := NewRESTFactory("")
	if _, err := factory.New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
