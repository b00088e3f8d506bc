package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"sangam-admin/pkg/models"
)

func TestNewClient(t *testing.T) {
	logger := zap.NewNop()
	client := NewClient("http://localhost:8090", "key", logger)

	if client == nil {
		t.Fatal("клиент не должен быть nil")
	}

	if client.apiURL != "http://localhost:8090" {
		t.Errorf("ожидался apiURL 'http://localhost:8090', получен '%s'", client.apiURL)
	}

	if client.httpClient == nil {
		t.Error("httpClient не должен быть nil")
	}
}

func TestFetchStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/stats" {
			t.Errorf("ожидался путь /v1/stats, получен %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_key" {
			t.Errorf("ожидался Bearer токен, получен '%s'", r.Header.Get("Authorization"))
		}

		json.NewEncoder(w).Encode(EngagementStats{
			Platform: "youtube",
			Views:    3500,
			Likes:    120,
			Comments: 14,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key", zap.NewNop())

	engagement, err := client.FetchStats(context.Background(), models.PlatformYoutube, "https://youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if engagement.Views != 3500 {
		t.Errorf("ожидалось 3500 просмотров, получено %d", engagement.Views)
	}
	if engagement.Likes != 120 {
		t.Errorf("ожидалось 120 лайков, получено %d", engagement.Likes)
	}
	if engagement.Comments != 14 {
		t.Errorf("ожидалось 14 комментариев, получено %d", engagement.Comments)
	}
}

func TestFetchStats_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	_, err := client.FetchStats(context.Background(), models.PlatformInstagram, "https://instagram.com/p/abc")
	if err == nil {
		t.Error("ожидалась ошибка при ответе 500")
	}
}

func TestHealthCheck(t *testing.T) {
	logger := zap.NewNop()
	client := NewClient("http://localhost:1", "", logger)

	// Тест с несуществующим сервером должен вернуть ошибку
	ctx := context.Background()
	err := client.HealthCheck(ctx)

	if err == nil {
		t.Error("ожидалась ошибка при проверке несуществующего сервера")
	}
}
