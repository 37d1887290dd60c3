package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type testEnv struct {
	store *docstore.MemoryStore
	tasks repositories.TaskRepository
	hub   *Hub
	url   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := docstore.NewMemoryStore("test")
	t.Cleanup(func() { store.Close() })
	tasks := repositories.NewTaskRepository(store)

	hub := NewHub([]string{"*"})
	hub.Handle(TopicProjectTasks, func(ctx context.Context, userID, key string) (Source, error) {
		feed, err := tasks.SubscribeByProject(ctx, key)
		if err != nil {
			return nil, err
		}
		return FromFeed[models.Task](feed), nil
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	return &testEnv{
		store: store,
		tasks: tasks,
		hub:   hub,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=u1",
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type rawFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func readFrame(t *testing.T, conn *websocket.Conn) rawFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var f rawFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubscribePushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	conn := dial(t, env.url)
	ctx := context.Background()

	env.tasks.Store(ctx, &models.Task{ProjectID: "p1", Title: "existing"})

	conn.WriteJSON(ClientFrame{Op: OpSubscribe, ID: "s1", Topic: TopicProjectTasks, Key: "p1"})
	f := readFrame(t, conn)
	if f.Type != FrameSnapshot || f.ID != "s1" || f.Topic != TopicProjectTasks {
		t.Fatalf("unexpected frame: %+v", f)
	}
	var tasks []models.Task
	json.Unmarshal(f.Data, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "existing" {
		t.Fatalf("initial snapshot = %+v", tasks)
	}

	env.tasks.Store(ctx, &models.Task{ProjectID: "p1", Title: "new"})
	f = readFrame(t, conn)
	json.Unmarshal(f.Data, &tasks)
	if len(tasks) != 2 {
		t.Fatalf("snapshot after insert has %d tasks, want 2", len(tasks))
	}

	conn.WriteJSON(ClientFrame{Op: OpUnsubscribe, ID: "s1"})
	waitFor(t, func() bool { return env.store.Subscriptions() == 0 })
}

func TestUnknownTopicAndNotice(t *testing.T) {
	env := newTestEnv(t)
	conn := dial(t, env.url)

	conn.WriteJSON(ClientFrame{Op: OpSubscribe, ID: "s1", Topic: "nope"})
	f := readFrame(t, conn)
	if f.Type != FrameError || f.ID != "s1" {
		t.Fatalf("unexpected frame: %+v", f)
	}

	waitFor(t, func() bool { return env.hub.Connections("u1") == 1 })
	env.hub.PushNotice("u1", "Failed to create task")
	f = readFrame(t, conn)
	if f.Type != FrameNotice || f.Message != "Failed to create task" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestDisconnectClosesSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	conn := dial(t, env.url)

	conn.WriteJSON(ClientFrame{Op: OpSubscribe, ID: "a", Topic: TopicProjectTasks, Key: "p1"})
	conn.WriteJSON(ClientFrame{Op: OpSubscribe, ID: "b", Topic: TopicProjectTasks, Key: "p2"})
	readFrame(t, conn)
	readFrame(t, conn)
	if n := env.store.Subscriptions(); n != 2 {
		t.Fatalf("Subscriptions() = %d, want 2", n)
	}

	conn.Close()
	waitFor(t, func() bool { return env.store.Subscriptions() == 0 })
	waitFor(t, func() bool { return env.hub.Connections("u1") == 0 })
}
