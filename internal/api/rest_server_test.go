package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/essence-field/internal/field"
	"github.com/annel0/essence-field/internal/vec"
)

// Один сервер на весь пакет: middleware регистрирует HTTP-метрики в
// глобальном регистре prometheus, повторное создание паникует.
func TestRestServerEndpoints(t *testing.T) {
	rt := field.NewRuntime(field.Options{
		CellSize: 8.0,
		Clock:    &field.ManualClock{Current: 5},
	})
	id := rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0, Z: 1}, field.ColorRed, 10, 1.0, field.NoFloor)

	rs, err := NewRestServer(Config{Port: ":0", Runtime: rt})
	if err != nil {
		t.Fatalf("Ошибка создания REST сервера: %v", err)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		rs.router.ServeHTTP(w, req)
		return w
	}

	// /health
	if w := do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("/health должен вернуть 200, получено %d", w.Code)
	}

	// /api/stats
	if w := do(http.MethodGet, "/api/stats", ""); w.Code != http.StatusOK {
		t.Errorf("/api/stats должен вернуть 200, получено %d", w.Code)
	}

	// /api/cells отдаёт занятость пространственного индекса
	w := do(http.MethodGet, "/api/cells", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/api/cells должен вернуть 200, получено %d", w.Code)
	}
	var cells field.CellStats
	if err := json.Unmarshal(w.Body.Bytes(), &cells); err != nil {
		t.Fatalf("Ошибка разбора /api/cells: %v", err)
	}
	if cells.CellSize != 8.0 || cells.CellCount != 1 || cells.Probes != 1 {
		t.Errorf("Неверная статистика ячеек: %+v", cells)
	}

	// /api/probes/:id
	w = do(http.MethodGet, "/api/probes/0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/api/probes/0 должен вернуть 200, получено %d", w.Code)
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &probe); err != nil {
		t.Fatalf("Ошибка разбора /api/probes/0: %v", err)
	}
	if probe["color"] != "red" || probe["capacity"].(float64) != 10 {
		t.Errorf("Неверная запись зонда: %v", probe)
	}

	if w := do(http.MethodGet, "/api/probes/99", ""); w.Code != http.StatusNotFound {
		t.Errorf("Чужой идентификатор должен вернуть 404, получено %d", w.Code)
	}

	// POST /api/debug/pulse дрейнит зонд в пределах бюджета
	w = do(http.MethodPost, "/api/debug/pulse",
		`{"x":0,"y":0,"z":0,"radius":5,"height_up":2,"height_down":2,"max_take_total":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("/api/debug/pulse должен вернуть 200, получено %d: %s", w.Code, w.Body.String())
	}
	var pulse map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &pulse); err != nil {
		t.Fatalf("Ошибка разбора ответа импульса: %v", err)
	}
	if pulse["total_taken"].(float64) != 4 {
		t.Errorf("Ожидалось взять 4, получено %v", pulse["total_taken"])
	}
	if rt.Probe(id).Remaining != 6 {
		t.Errorf("Остаток зонда должен быть 6, получено %f", rt.Probe(id).Remaining)
	}

	// Импульс без радиуса отклоняется валидацией
	if w := do(http.MethodPost, "/api/debug/pulse", `{"x":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("Импульс без радиуса должен вернуть 400, получено %d", w.Code)
	}
}
