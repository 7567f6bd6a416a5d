package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"palmera/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamRecorder 可在处理器写入时并发读取的 ResponseRecorder
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *streamRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *streamRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *streamRecorder) frames() []sseFrame {
	r.mu.Lock()
	body := r.Body.String()
	r.mu.Unlock()

	var out []sseFrame
	for _, chunk := range strings.Split(body, "\n\n") {
		if !strings.HasPrefix(chunk, "data: ") {
			continue
		}
		var f sseFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// stream 发起 SSE 请求，返回记录器与结束函数
func (s *testServer) stream(t *testing.T, path, token string) (*streamRecorder, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", path, nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.engine.ServeHTTP(rec, req)
	}()
	return rec, func() {
		cancel()
		<-done
	}
}

func TestRealtimeHandler_Dashboard(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register(t, "duena@palmera.es", "Dueña")

	rec, stop := s.stream(t, "/api/v1/realtime/dashboard", token)
	defer stop()

	require.Eventually(t, func() bool {
		return len(rec.frames()) == 1
	}, 2*time.Second, 10*time.Millisecond, "连接后立即推送一次")
	assert.Equal(t, 1, s.hub.Subscribers(models.TableIncomeRecords))
	assert.Equal(t, 1, s.hub.Subscribers(models.TableExpenseRecords))

	today := models.DayOf(time.Now())
	for _, name := range []string{"Ana", "Eva", "Mar"} {
		s.seedIncome(t, userID, name, "Tamar", "10.00", today)
	}
	require.Eventually(t, func() bool {
		frames := rec.frames()
		last := frames[len(frames)-1]
		data, ok := last.Data.(map[string]interface{})
		return ok && data["today_income"] == "30.00"
	}, 2*time.Second, 10*time.Millisecond, "写入后重新计算并推送")

	frames := rec.frames()
	assert.LessOrEqual(t, len(frames), 4)
	assert.Equal(t, "dashboard", frames[len(frames)-1].Type)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	stop()
	assert.Equal(t, 0, s.hub.Subscribers(models.TableIncomeRecords), "断开后取消订阅")
}

func TestRealtimeHandler_Changes(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register(t, "duena@palmera.es", "Dueña")

	w := s.do("GET", "/api/v1/realtime/user_profiles", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	rec, stop := s.stream(t, "/api/v1/realtime/"+models.TableExpenseRecords, token)
	defer stop()
	require.Eventually(t, func() bool {
		return s.hub.Subscribers(models.TableExpenseRecords) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.seedExpense(t, userID, "Material", "5.00", models.DayOf(time.Now()))
	require.Eventually(t, func() bool {
		return len(rec.frames()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f := rec.frames()[0]
	assert.Equal(t, "change", f.Type)
	change := f.Data.(map[string]interface{})
	assert.Equal(t, models.TableExpenseRecords, change["table"])
	assert.Equal(t, "insert", change["type"])
	assert.NotEmpty(t, change["id"])
}
