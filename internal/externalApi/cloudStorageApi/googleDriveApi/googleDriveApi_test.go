package googleDriveApi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestExportFilename(t *testing.T) {
	name := ExportFilename(42, time.Date(2024, 3, 5, 10, 4, 5, 0, time.UTC), ".xlsx")
	assert.Equal(t, "screener_42_20240305_100405.xlsx", name)
}

func TestDeleteOldFiles(t *testing.T) {
	now := time.Now().UTC()

	var mu sync.Mutex
	var deleted []string
	trashEmptied := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"files": []map[string]string{
					{"id": "old", "name": "screener_1_a.xlsx", "createdTime": now.Add(-48 * time.Hour).Format(time.RFC3339)},
					{"id": "fresh", "name": "screener_1_b.xlsx", "createdTime": now.Add(-time.Hour).Format(time.RFC3339)},
					{"id": "foreign", "name": "notes.txt", "createdTime": now.Add(-48 * time.Hour).Format(time.RFC3339)},
					{"id": "broken", "name": "screener_1_c.xlsx", "createdTime": "yesterday"},
				},
			})
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/files/trash"):
			trashEmptied = true
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			parts := strings.Split(r.URL.Path, "/")
			deleted = append(deleted, parts[len(parts)-1])
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.GoogleDrive.FileTTL = 24 * time.Hour

	api := newWithOptions(context.Background(), cfg,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)

	require.NoError(t, api.DeleteOldFiles(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"old"}, deleted)
	assert.True(t, trashEmptied)
}
