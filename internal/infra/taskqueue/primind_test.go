//go:build !gcloud

package taskqueue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type fakeEmulator struct {
	mu       sync.Mutex
	tasks    map[string]PrimindTask
	failures int
}

func newFakeEmulator() *fakeEmulator {
	return &fakeEmulator{tasks: make(map[string]PrimindTask)}
}

func (f *fakeEmulator) setFailures(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *fakeEmulator) task(id string) PrimindTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

func (f *fakeEmulator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/{queue}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req PrimindTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.tasks[req.Task.Name] = req.Task
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{
			Name:         "queues/" + r.PathValue("queue") + "/tasks/" + req.Task.Name,
			ScheduleTime: req.Task.ScheduleTime,
			CreateTime:   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /tasks/{queue}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := PrimindListResponse{}
		for name, task := range f.tasks {
			resp.Tasks = append(resp.Tasks, PrimindTaskResponse{
				Name:         "queues/" + r.PathValue("queue") + "/tasks/" + name,
				ScheduleTime: task.ScheduleTime,
				HTTPRequest:  task.HTTPRequest,
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("DELETE /tasks/{queue}/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		if _, ok := f.tasks[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.tasks, id)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func testNotification(id string, auto bool) *domain.Notification {
	return &domain.Notification{
		ID:        id,
		Title:     "Medication time (morning)",
		Body:      "08:00 • Aspirin",
		Channel:   domain.ChannelDefault,
		DeliverAt: time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC),
		Payload: domain.NotificationPayload{
			Kind:          domain.NotificationKindReminder,
			Auto:          auto,
			GroupKey:      "2024-01-15|08:00",
			MedicationIDs: []string{"a"},
		},
	}
}

func TestPrimindTasksClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	emulator := newFakeEmulator()
	server := httptest.NewServer(emulator.handler())
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "reminders", 3)

	if _, err := client.Schedule(ctx, testNotification("auto-1", true)); err != nil {
		t.Fatalf("unexpected schedule error: %v", err)
	}
	if _, err := client.Schedule(ctx, testNotification("snooze-1", false)); err != nil {
		t.Fatalf("unexpected schedule error: %v", err)
	}

	listed, err := client.List(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(listed))
	}

	autoCount := 0
	for _, n := range listed {
		if n.Payload.Auto {
			autoCount++
			if n.ID != "auto-1" {
				t.Errorf("unexpected auto id %q", n.ID)
			}
		}
	}
	if autoCount != 1 {
		t.Errorf("expected 1 auto notification, got %d", autoCount)
	}

	if err := client.Cancel(ctx, "auto-1"); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}
	if err := client.Cancel(ctx, "auto-1"); err != nil {
		t.Errorf("expected cancel of missing task to succeed, got %v", err)
	}

	listed, err = client.List(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "snooze-1" {
		t.Errorf("unexpected remaining notifications %v", listed)
	}
}

func TestPrimindTasksClientRetries(t *testing.T) {
	ctx := context.Background()
	emulator := newFakeEmulator()
	emulator.setFailures(2)
	server := httptest.NewServer(emulator.handler())
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "reminders", 3)
	if _, err := client.Schedule(ctx, testNotification("auto-1", true)); err != nil {
		t.Fatalf("expected schedule to succeed after retries, got %v", err)
	}

	emulator.setFailures(5)
	if _, err := client.Schedule(ctx, testNotification("auto-2", true)); err == nil {
		t.Fatal("expected schedule to fail after exhausting retries")
	}
}

func TestPrimindTasksClientEncodesBody(t *testing.T) {
	ctx := context.Background()
	emulator := newFakeEmulator()
	server := httptest.NewServer(emulator.handler())
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "", 1)
	if _, err := client.Schedule(ctx, testNotification("auto-1", true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := emulator.task("auto-1")
	raw, err := base64.StdEncoding.DecodeString(task.HTTPRequest.Body)
	if err != nil {
		t.Fatalf("body is not base64: %v", err)
	}
	var n domain.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("body is not a notification: %v", err)
	}
	if n.Payload.GroupKey != "2024-01-15|08:00" {
		t.Errorf("unexpected payload %+v", n.Payload)
	}
	if task.ScheduleTime != "2024-01-15T08:00:00Z" {
		t.Errorf("unexpected schedule time %q", task.ScheduleTime)
	}
}
