package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

// fakeServer is an in-memory stand-in for the HTTP API that records every
// call.
type fakeServer struct {
	t *testing.T

	mu       sync.Mutex
	tasks    map[string]*api.Task
	messages []api.Message // newest first
	calls    []call
	feed     func(q url.Values) api.FeedPage

	claimStatus      int
	transitionStatus int
	postStatus       int

	srv *httptest.Server
}

type call struct {
	Method string
	Path   string
	Query  url.Values
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{t: t, tasks: make(map[string]*api.Task)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/info", f.taskInfo)
	mux.HandleFunc("POST /tasks/info", f.transition)
	mux.HandleFunc("DELETE /tasks", f.deleteTask)
	mux.HandleFunc("GET /tasks", f.feedPage)
	mux.HandleFunc("POST /tasks/edit", f.edit)
	mux.HandleFunc("GET /messages", f.messagePage)
	mux.HandleFunc("POST /messages", f.postMessage)
	mux.HandleFunc("DELETE /messages", f.purge)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()})
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// configure mutates the fake under its lock.
func (f *fakeServer) configure(fn func(f *fakeServer)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeServer) client() *Client { return New(f.srv.URL, WithToken("token")) }

func (f *fakeServer) addTask(task api.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.Version == 0 {
		task.Version = 1
	}
	f.tasks[task.KeyString] = &task
}

func (f *fakeServer) task(key string) (api.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[key]
	if !ok {
		return api.Task{}, false
	}
	return *t, true
}

// addMessages stores n messages sent at times 1..n.
func (f *fakeServer) addMessages(taskID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 1; i <= n; i++ {
		f.messages = append([]api.Message{{
			ID:        fmt.Sprintf("m%02d", i),
			TaskID:    taskID,
			Message:   fmt.Sprintf("message %d", i),
			ClassName: api.ClassSentByOthers,
			SentTime:  int64(i),
		}}, f.messages...)
	}
}

// count returns how many calls matched method and path.
func (f *fakeServer) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeServer) last(method, path string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if c := f.calls[i]; c.Method == method && c.Path == path {
			return c, true
		}
	}
	return call{}, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) taskInfo(w http.ResponseWriter, r *http.Request) {
	task, ok := f.task(r.URL.Query().Get("key"))
	if !ok {
		writeJSON(w, http.StatusNotFound, api.Error{Error: "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (f *fakeServer) transition(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transitionStatus != 0 {
		writeJSON(w, f.transitionStatus, api.Error{Error: "task changed"})
		return
	}
	task, ok := f.tasks[r.URL.Query().Get("key")]
	if !ok {
		writeJSON(w, http.StatusNotFound, api.Error{Error: "task not found"})
		return
	}
	to, err := lifecycle.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "unknown status"})
		return
	}
	task.Status = to.String()
	if lifecycle.ClearsHelper(to) {
		task.Helper = ""
	}
	task.Version++
	writeJSON(w, http.StatusOK, task)
}

func (f *fakeServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delete(f.tasks, r.URL.Query().Get("key"))
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeServer) feedPage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	feed := f.feed
	f.mu.Unlock()
	if feed == nil {
		writeJSON(w, http.StatusOK, paging.NewPageSet[string](0, nil))
		return
	}
	writeJSON(w, http.StatusOK, feed(r.URL.Query()))
}

func (f *fakeServer) edit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[r.URL.Query().Get("task-id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, api.Error{Error: "task not found"})
		return
	}
	if r.URL.Query().Get("action") == "helpout" {
		if f.claimStatus != 0 {
			writeJSON(w, f.claimStatus, api.Error{Error: "Task has already been claimed by another helper"})
			return
		}
		task.Status = lifecycle.StatusInProgress.String()
		task.Helper = "helper"
		task.Version++
		writeJSON(w, http.StatusOK, task)
		return
	}
	var form api.TaskForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "invalid request body"})
		return
	}
	task.Overview, task.Detail, task.Category, task.Reward = form.Overview, form.Detail, form.Category, form.Reward
	task.Version++
	writeJSON(w, http.StatusOK, task)
}

func (f *fakeServer) messagePage(w http.ResponseWriter, r *http.Request) {
	after, err := paging.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "invalid cursor"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	page := api.MessagePage{Messages: []api.Message{}}
	for _, m := range f.messages {
		if !after.IsZero() && m.SentTime >= after.Key {
			continue
		}
		page.Messages = append(page.Messages, m)
		if len(page.Messages) == MessagePageSize {
			break
		}
	}
	if n := len(page.Messages); n == MessagePageSize {
		last := page.Messages[n-1]
		page.CursorString = paging.Cursor{Key: last.SentTime, ID: last.ID}.String()
	}
	writeJSON(w, http.StatusOK, page)
}

func (f *fakeServer) postMessage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.postStatus
	f.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, api.Error{Error: "internal server error"})
		return
	}
	var body api.PostMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Error: "invalid request body"})
		return
	}
	writeJSON(w, http.StatusCreated, api.Message{ID: "new", TaskID: r.URL.Query().Get("task-id"), Message: body.Message})
}

func (f *fakeServer) purge(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.messages = nil
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// prompter records alerts and answers every confirmation with answer.
type prompter struct {
	answer   bool
	alerts   []string
	confirms []string
}

func (p *prompter) Alert(msg string) { p.alerts = append(p.alerts, msg) }

func (p *prompter) Confirm(msg string) bool {
	p.confirms = append(p.confirms, msg)
	return p.answer
}

type navigator struct{ redirects []string }

func (n *navigator) Redirect(path string) { n.redirects = append(n.redirects, path) }
