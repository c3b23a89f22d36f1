package homeassistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ephemerear/internal/infra/homeassistant"
)

func TestClient_Notify(t *testing.T) {
	var got map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/services/notify/mobile_app_phone" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer ha-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := homeassistant.NewClient(server.URL+"/", "ha-token", "mobile_app_phone")

	if err := client.Notify(context.Background(), "reply text"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	if got["message"] != "reply text" || got["title"] != "EphemerEar" {
		t.Errorf("payload: got %v", got)
	}
}

func TestClient_NotifyUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := homeassistant.NewClient(server.URL, "wrong", "")

	if err := client.Notify(context.Background(), "reply"); err == nil {
		t.Error("expected error for 401")
	}
}
