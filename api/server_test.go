package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"asin-lister/models"
	"asin-lister/storage"
	"asin-lister/utils"
)

type memItems struct {
	mu    sync.Mutex
	items map[string]models.ListingCandidate
}

func newMemItems(cs ...models.ListingCandidate) *memItems {
	m := &memItems{items: map[string]models.ListingCandidate{}}
	for _, c := range cs {
		m.items[c.ASIN] = c
	}
	return m
}

func (m *memItems) Load(context.Context) ([]models.ListingCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ListingCandidate, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ASIN < out[j].ASIN })
	return out, nil
}

func (m *memItems) Save(_ context.Context, items []models.ListingCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range items {
		m.items[c.ASIN] = c
	}
	return nil
}

func (m *memItems) Delete(_ context.Context, asins, keep []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := []string{}
	for _, a := range storage.DeletableASINs(asins, keep) {
		if _, ok := m.items[a]; ok {
			delete(m.items, a)
			removed = append(removed, a)
		}
	}
	return removed, nil
}

func (m *memItems) Close() error { return nil }

type fakeRunner struct {
	got []models.ListingCandidate
}

func (f *fakeRunner) Run(_ context.Context, cs []models.ListingCandidate, _ models.Settings) *models.RunReport {
	f.got = cs
	r := &models.RunReport{RunID: "run-test"}
	for _, c := range cs {
		r.Outcomes = append(r.Outcomes, models.ListingOutcome{ASIN: c.ASIN, Status: models.StatusSuccess})
	}
	return r
}

func newTestServer(t *testing.T, items *memItems) (*httptest.Server, *fakeRunner, *storage.SettingsStore) {
	t.Helper()
	st, err := storage.OpenSettingsStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	runner := &fakeRunner{}
	srv := httptest.NewServer(NewServer(items, st, runner, utils.NewDiscardLogger()).Router())
	t.Cleanup(srv.Close)
	return srv, runner, st
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthSetsRequestID(t *testing.T) {
	srv, _, _ := newTestServer(t, newMemItems())
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t, newMemItems())

	_, body := do(t, http.MethodGet, srv.URL+"/settings", "")
	if body["shipping_method"] != "1" {
		t.Errorf("default shipping_method = %v", body["shipping_method"])
	}

	put := `{"max_stock":3,"max_ship_days":2,"shipping_method":"SM9","prime_only":true,
		"price_rules":[{"min":1,"multiply":1.1,"plus":100}],"keep_asins":["B0TEST0001"]}`
	resp, _ := do(t, http.MethodPut, srv.URL+"/settings", put)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /settings = %d", resp.StatusCode)
	}
	_, body = do(t, http.MethodGet, srv.URL+"/settings", "")
	if body["shipping_method"] != "SM9" || body["max_stock"] != float64(3) {
		t.Errorf("stored settings = %v", body)
	}
}

func TestPutSettingsRejectsInvalid(t *testing.T) {
	srv, _, _ := newTestServer(t, newMemItems())
	tests := []string{
		`not json`,
		`{"max_stock":0,"shipping_method":"1"}`,
		`{"max_stock":1,"shipping_method":""}`,
	}
	for _, body := range tests {
		resp, _ := do(t, http.MethodPut, srv.URL+"/settings", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT /settings %q = %d; want 400", body, resp.StatusCode)
		}
	}
}

func TestCreateRunFromText(t *testing.T) {
	stored := models.ListingCandidate{ASIN: "B0TEST0001", Name: "Stored name"}
	items := newMemItems(stored)
	srv, runner, _ := newTestServer(t, items)

	text := "asin,title\nB0TEST0001,x\nb0test0002,y\nB0TEST0001,dup\n"
	payload, _ := json.Marshal(map[string]string{"text": text})
	resp, body := do(t, http.MethodPost, srv.URL+"/runs", string(payload))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /runs = %d %v", resp.StatusCode, body)
	}
	if body["run_id"] != "run-test" {
		t.Errorf("report = %v", body)
	}
	if len(runner.got) != 2 {
		t.Fatalf("runner got %d candidates, want 2", len(runner.got))
	}
	if runner.got[0].Name != "Stored name" {
		t.Errorf("stored candidate not reused: %+v", runner.got[0])
	}
	all, _ := items.Load(context.Background())
	if len(all) != 2 {
		t.Errorf("new identifier not stored: %d items", len(all))
	}
}

func TestCreateRunFromASINs(t *testing.T) {
	srv, runner, _ := newTestServer(t, newMemItems())

	resp, _ := do(t, http.MethodPost, srv.URL+"/runs", `{"asins":[" b0test0003 ","B0TEST0003"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /runs = %d", resp.StatusCode)
	}
	if len(runner.got) != 1 || runner.got[0].ASIN != "B0TEST0003" {
		t.Errorf("runner got %+v", runner.got)
	}

	resp, body := do(t, http.MethodPost, srv.URL+"/runs", `{"asins":["short"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid identifier = %d; want 400", resp.StatusCode)
	}
	if inv, _ := body["invalid"].([]any); len(inv) != 1 {
		t.Errorf("invalid list = %v", body["invalid"])
	}
}

func TestCreateRunNothingImportable(t *testing.T) {
	srv, runner, _ := newTestServer(t, newMemItems())
	resp, body := do(t, http.MethodPost, srv.URL+"/runs", `{"text":"asin\nnot-an-id\n"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("POST /runs = %d; want 422", resp.StatusCode)
	}
	if body["error"] != "nothing importable" {
		t.Errorf("error = %v", body["error"])
	}
	if runner.got != nil {
		t.Error("runner should not be called")
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/runs", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty request = %d; want 400", resp.StatusCode)
	}
}

func TestItemsListAndDeleteHonoursKeepList(t *testing.T) {
	items := newMemItems(
		models.ListingCandidate{ASIN: "B0TEST0001"},
		models.ListingCandidate{ASIN: "B0TEST0002"},
	)
	srv, _, st := newTestServer(t, items)

	keep := models.DefaultSettings()
	keep.KeepASINs = []string{"B0TEST0001"}
	if err := st.Save(context.Background(), keep); err != nil {
		t.Fatal(err)
	}

	_, body := do(t, http.MethodGet, srv.URL+"/items", "")
	if body["count"] != float64(2) {
		t.Errorf("count = %v; want 2", body["count"])
	}

	resp, body := do(t, http.MethodDelete, srv.URL+"/items", `{"asins":["B0TEST0001","b0test0002"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE /items = %d", resp.StatusCode)
	}
	deleted, _ := body["deleted"].([]any)
	if len(deleted) != 1 || deleted[0] != "B0TEST0002" {
		t.Errorf("deleted = %v; want [B0TEST0002]", deleted)
	}

	resp, _ = do(t, http.MethodDelete, srv.URL+"/items", `{"asins":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty delete = %d; want 400", resp.StatusCode)
	}
}
