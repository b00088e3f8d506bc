package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"sangam-admin/pkg/models"
)

// Client представляет клиент для работы с API статистики вовлеченности.
// Внешний сервис собирает просмотры, лайки и комментарии публикаций
// на социальных площадках
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент API статистики
func NewClient(apiURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// EngagementStats представляет счетчики вовлеченности публикации
type EngagementStats struct {
	Platform  string    `json:"platform"`
	PostURL   string    `json:"post_url"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchStats получает счетчики вовлеченности публикации
func (c *Client) FetchStats(ctx context.Context, platform models.Platform, postURL string) (*EngagementStats, error) {
	endpoint := fmt.Sprintf("%s/v1/stats?platform=%s&url=%s",
		c.apiURL, url.QueryEscape(string(platform)), url.QueryEscape(postURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса статистики: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API статистики вернул статус %d: %s", resp.StatusCode, string(body))
	}

	var engagement EngagementStats
	if err := json.NewDecoder(resp.Body).Decode(&engagement); err != nil {
		return nil, fmt.Errorf("ошибка декодирования ответа: %w", err)
	}

	c.logger.Debug("получена статистика публикации",
		zap.String("platform", string(platform)),
		zap.Int64("views", engagement.Views),
		zap.Int64("likes", engagement.Likes),
		zap.Int64("comments", engagement.Comments))

	return &engagement, nil
}

// HealthCheck проверяет доступность API статистики
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API статистики недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API статистики вернул статус %d", resp.StatusCode)
	}

	return nil
}
