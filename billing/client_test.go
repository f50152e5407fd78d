package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCustomers_Pagination(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		offset := r.URL.Query().Get("offset")
		w.Header().Set("Content-Type", "application/json")
		if offset == "0" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]string{
					{"id": "EXT-1", "name": "ООО Ромашка", "tax_id": "7707083893"},
				},
				"next_offset": 1,
				"has_more":    true,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{
				{"id": "EXT-2", "name": "Acme Corp", "email": "sales@acme.example"},
			},
			"has_more": false,
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Millisecond)
	records, err := client.FetchCustomers(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "EXT-1", records[0].ExternalID)
	assert.Equal(t, "ООО Ромашка", records[0].Name)
	assert.Equal(t, "sales@acme.example", records[1].Email)
	assert.Equal(t, 2, requests)
}

func TestFetchCustomers_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("", server.URL, time.Millisecond)
	_, err := client.FetchCustomers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchCustomers_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("", server.URL, time.Millisecond)
	_, err := client.FetchCustomers(ctx)
	require.Error(t, err)
}
