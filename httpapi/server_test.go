package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/kevin-chtw/tw_hkmj/mahjong"
)

type nopPusher struct{}

func (nopPusher) SendPushToUsers(route string, v interface{}, uids []string, frontendType string) ([]string, error) {
	return nil, nil
}

func get(t *testing.T, h http.Handler, path string) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
	}
	return w.Code, resp
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := game.NewTableManager(game.DefaultConfig(), nopPusher{}, game.WithShuffler(mahjong.NewRandShuffler(1)))
	defer m.Close()
	table, _, err := m.Create("host", "Host")
	if err != nil {
		t.Fatal(err)
	}
	h := NewServer(":0", m).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Errorf("ping = %d %q", w.Code, w.Body.String())
	}

	tests := []struct {
		name   string
		path   string
		status int
		code   int
	}{
		{"list", "/api/v1/rooms", http.StatusOK, CodeSuccess},
		{"room", "/api/v1/rooms/" + table.Code(), http.StatusOK, CodeSuccess},
		{"lower case code", "/api/v1/rooms/" + strings.ToLower(table.Code()), http.StatusOK, CodeSuccess},
		{"unknown room", "/api/v1/rooms/ZZZZZ", http.StatusNotFound, CodeNotFound},
		{"snapshot before start", "/api/v1/rooms/" + table.Code() + "/snapshot", http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := get(t, h, tt.path)
			if status != tt.status || resp.Code != tt.code {
				t.Errorf("got %d/%d, want %d/%d", status, resp.Code, tt.status, tt.code)
			}
		})
	}

	if _, err := table.FillBots("host"); err != nil {
		t.Fatal(err)
	}
	if err := table.Start("host"); err != nil {
		t.Fatal(err)
	}
	status, resp := get(t, h, "/api/v1/rooms/"+table.Code()+"/snapshot")
	if status != http.StatusOK || resp.Code != CodeSuccess || resp.Data == nil {
		t.Errorf("snapshot = %d %+v", status, resp)
	}
}
