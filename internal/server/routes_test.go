package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/syui/aigpt/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, w.Body.String())
	}
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestChat(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "POST", "/api/chat", `{"user_id":"alice","message":"hello there"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	decode(t, w, &resp)
	if resp["response"] == "" {
		t.Error("empty response")
	}
	// Fixed roll gives fortune 8, joyful mood, delta 2.
	if resp["delta"] != 2.0 {
		t.Errorf("delta = %v, want 2", resp["delta"])
	}

	// The interaction shows up in the relationship.
	w = do(srv, "GET", "/api/relationships/alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("relationship status = %d", w.Code)
	}
	var rel store.Relationship
	decode(t, w, &rel)
	if rel.Score != 2.0 || rel.TotalInteractions != 1 {
		t.Errorf("relationship = %+v", rel)
	}
}

func TestChatValidation(t *testing.T) {
	srv := testServer(t)

	if w := do(srv, "POST", "/api/chat", `{"message":"no user"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status = %d", w.Code)
	}
	if w := do(srv, "POST", "/api/chat", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", w.Code)
	}
}

func TestStatus(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Mood        string             `json:"mood"`
		Personality map[string]float64 `json:"personality"`
	}
	decode(t, w, &resp)
	if resp.Mood != "joyful" {
		t.Errorf("mood = %s, want joyful", resp.Mood)
	}
	if len(resp.Personality) == 0 {
		t.Error("empty personality")
	}
}

func TestFortuneEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/api/fortune", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var f store.Fortune
	decode(t, w, &f)
	if f.Value != 8 || f.Day != "2026-08-01" {
		t.Errorf("fortune = %+v", f)
	}
}

func TestRelationshipNotFound(t *testing.T) {
	srv := testServer(t)

	if w := do(srv, "GET", "/api/relationships/ghost", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMemorySearch(t *testing.T) {
	srv := testServer(t)

	do(srv, "POST", "/api/chat", `{"user_id":"alice","message":"tell me about gardening"}`)

	w := do(srv, "GET", "/api/memories/search?q=gardening", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var results []store.Memory
	decode(t, w, &results)
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}

	if w := do(srv, "GET", "/api/memories/search", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d", w.Code)
	}
}

func TestContextualMemories(t *testing.T) {
	srv := testServer(t)

	do(srv, "POST", "/api/chat", `{"user_id":"alice","message":"hello"}`)

	w := do(srv, "GET", "/api/memories/contextual?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	decode(t, w, &resp)
	for _, key := range []string{"core", "summary", "recent", "all_active"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("missing group %q", key)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "POST", "/api/tasks", `{"task_type":"maintenance","schedule":"0 3 * * *"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d; body: %s", w.Code, w.Body.String())
	}
	var task store.Task
	decode(t, w, &task)

	if w := do(srv, "POST", "/api/tasks/"+task.TaskID+"/disable", ""); w.Code != http.StatusOK {
		t.Errorf("disable status = %d", w.Code)
	}
	if w := do(srv, "POST", "/api/tasks/"+task.TaskID+"/enable", ""); w.Code != http.StatusOK {
		t.Errorf("enable status = %d", w.Code)
	}

	w = do(srv, "GET", "/api/tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var tasks []store.Task
	decode(t, w, &tasks)
	if len(tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(tasks))
	}

	if w := do(srv, "DELETE", "/api/tasks/"+task.TaskID, ""); w.Code != http.StatusOK {
		t.Errorf("remove status = %d", w.Code)
	}
}

func TestAddTaskRejectsBadInput(t *testing.T) {
	srv := testServer(t)

	if w := do(srv, "POST", "/api/tasks", `{"task_type":"maintenance","schedule":"whenever"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad schedule: status = %d", w.Code)
	}
	if w := do(srv, "POST", "/api/tasks", `{"task_type":"mystery","schedule":"30m"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad type: status = %d", w.Code)
	}
}

func TestTransmissionEndpoints(t *testing.T) {
	srv := testServer(t)

	if err := srv.db.AddTransmission(&store.Transmission{
		ID: "t1", UserID: "alice", Message: "hi", Success: true, Mood: "joyful", Score: 105, CreatedAt: 100,
	}); err != nil {
		t.Fatalf("AddTransmission: %v", err)
	}

	w := do(srv, "GET", "/api/transmissions?user_id=alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var entries []store.Transmission
	decode(t, w, &entries)
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}

	w = do(srv, "GET", "/api/transmissions/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats map[string]any
	decode(t, w, &stats)
	if stats["total"] != 1.0 || stats["success_rate"] != 1.0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestMaintenanceEndpoint(t *testing.T) {
	srv := testServer(t)

	if w := do(srv, "POST", "/api/maintenance", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
