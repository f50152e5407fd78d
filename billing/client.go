package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"crmserver/matching"
)

// Client клиент API биллинговой системы, из которой импортируются контрагенты.
// Запросы ограничены по частоте: биллинг режет агрессивных клиентов по квоте.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// customerPayload структура записи контрагента в ответе биллинга
type customerPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// customersResponse страница ответа биллинга
type customersResponse struct {
	Items      []customerPayload `json:"items"`
	NextOffset int               `json:"next_offset"`
	HasMore    bool              `json:"has_more"`
}

// NewClient создает новый клиент биллинга.
// requestInterval — минимальный интервал между запросами к API.
func NewClient(apiKey, baseURL string, requestInterval time.Duration) *Client {
	if requestInterval <= 0 {
		requestInterval = 200 * time.Millisecond
	}

	// Оптимизированный HTTP Transport с connection pooling
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxConnsPerHost:     5,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 5,
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// FetchCustomers выгружает все записи контрагентов из биллинга постранично.
// Блокирующий вызов, отменяется через контекст.
func (c *Client) FetchCustomers(ctx context.Context) ([]matching.ExternalRecord, error) {
	var records []matching.ExternalRecord
	offset := 0

	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			records = append(records, matching.ExternalRecord{
				ExternalID: item.ID,
				Name:       item.Name,
				TaxID:      item.TaxID,
				Email:      item.Email,
				Phone:      item.Phone,
			})
		}

		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}

	return records, nil
}

// fetchPage запрашивает одну страницу контрагентов
func (c *Client) fetchPage(ctx context.Context, offset int) (*customersResponse, error) {
	// Соблюдаем лимит частоты запросов
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL + "/api/customers")
	if err != nil {
		return nil, fmt.Errorf("invalid billing base URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("offset", strconv.Itoa(offset))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read billing response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing API returned status %d: %s", resp.StatusCode, string(body))
	}

	var page customersResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse billing response: %w", err)
	}

	return &page, nil
}
