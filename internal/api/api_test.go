package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/cotisations/internal/auth"
	"github.com/mmynk/cotisations/internal/backup"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/response"
	"github.com/mmynk/cotisations/internal/service"
	"github.com/mmynk/cotisations/internal/storage/sqlite"
)

var fixedNow = time.Date(2025, time.September, 15, 10, 30, 0, 0, time.Local)

type testServer struct {
	*httptest.Server
	authService *service.AuthService
	backupDir   string
	token       string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	settings := service.DefaultSettings()
	settings.Now = func() time.Time { return fixedNow }

	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	participants := service.NewParticipantService(store, settings)
	dues := service.NewDueService(store, settings)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())

	backupDir := t.TempDir()
	srv := NewServer(Services{
		Participants: participants,
		Dues:         dues,
		History:      service.NewHistoryService(store),
		Import:       service.NewImportService(participants, dues, settings),
		Reports:      service.NewReportService(store, settings),
		Reminders:    service.NewReminderService(store, settings),
		Auth:         authService,
	}, jwtManager, store, BackupConfig{Dir: backupDir, Keep: 2})

	token, err := jwtManager.Generate(&models.User{ID: "user-1", Username: "tresorier"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testServer{Server: ts, authService: authService, backupDir: backupDir, token: token}
}

// do sends a request with the test token and returns the response with its body read.
func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, data
}

// decodeData checks the status and decodes the success envelope's data.
func decodeData[T any](t *testing.T, resp *http.Response, body []byte, wantStatus int) T {
	t.Helper()
	if resp.StatusCode != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, wantStatus, body)
	}
	var env response.APIResponse[T]
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode response %s: %v", body, err)
	}
	if !env.Success {
		t.Fatalf("success = false in %s", body)
	}
	return env.Data
}

func expectError(t *testing.T, resp *http.Response, body []byte, wantStatus int) string {
	t.Helper()
	if resp.StatusCode != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, wantStatus, body)
	}
	var e response.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("failed to decode error %s: %v", body, err)
	}
	if e.Error == "" {
		t.Fatalf("empty error message in %s", body)
	}
	return e.Error
}

func (ts *testServer) createParticipant(t *testing.T, surname, givenName string, parcels int, phone string) participantResponse {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/v1/participants", map[string]any{
		"surname":      surname,
		"given_name":   givenName,
		"parcel_count": parcels,
		"phone":        phone,
	})
	return decodeData[participantResponse](t, resp, body, http.StatusCreated)
}

func TestHealthAndAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "available") {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	resp, _ = ts.do(t, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}

	ts.token = ""
	resp, body = ts.do(t, http.MethodGet, "/v1/participants", nil)
	expectError(t, resp, body, http.StatusUnauthorized)

	ts.token = "not-a-jwt"
	resp, body = ts.do(t, http.MethodGet, "/v1/participants", nil)
	expectError(t, resp, body, http.StatusUnauthorized)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	created, err := ts.authService.EnsureAdmin(ctx, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = %v, %v", created, err)
	}

	ts.token = ""
	resp, body := ts.do(t, http.MethodPost, "/v1/auth/login", loginRequest{Username: "admin", Password: "wrong-password"})
	expectError(t, resp, body, http.StatusUnauthorized)

	resp, body = ts.do(t, http.MethodPost, "/v1/auth/login", loginRequest{Username: "admin", Password: "admin123"})
	login := decodeData[loginResponse](t, resp, body, http.StatusOK)
	if login.Token == "" || login.Username != "admin" {
		t.Fatalf("login = %+v", login)
	}

	ts.token = login.Token
	resp, body = ts.do(t, http.MethodGet, "/v1/participants", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated request status = %d (%s)", resp.StatusCode, body)
	}
}

func TestParticipantValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/v1/participants", map[string]any{
		"surname":      "  ",
		"given_name":   "Jean",
		"parcel_count": -1,
		"email":        "not-an-email",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", resp.StatusCode, body)
	}
	var verr response.ValidationErrorResponse
	if err := json.Unmarshal(body, &verr); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, field := range []string{"surname", "parcel_count", "email"} {
		if verr.Fields[field] == "" {
			t.Errorf("no error for field %q in %v", field, verr.Fields)
		}
	}

	resp, body = ts.do(t, http.MethodPost, "/v1/participants", map[string]any{"surname": "A", "unknown": 1})
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = ts.do(t, http.MethodGet, "/v1/participants/abc", nil)
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = ts.do(t, http.MethodGet, "/v1/participants/999", nil)
	expectError(t, resp, body, http.StatusNotFound)
}

func TestParticipantCRUD(t *testing.T) {
	ts := setupTestServer(t)

	p := ts.createParticipant(t, "Dupont", "Jean", 3, "")
	if p.ID == 0 || p.FullName != "Dupont Jean" {
		t.Fatalf("created = %+v", p)
	}

	resp, body := ts.do(t, http.MethodPost, "/v1/participants", map[string]any{
		"surname": "Dupont", "given_name": "Jean", "parcel_count": 1,
	})
	expectError(t, resp, body, http.StatusConflict)

	resp, body = ts.do(t, http.MethodPut, "/v1/participants/"+itoa(p.ID), map[string]any{
		"surname": "Dupont", "given_name": "Jean", "parcel_count": 4, "phone": "06 123 45 67",
	})
	updated := decodeData[participantResponse](t, resp, body, http.StatusOK)
	if updated.ParcelCount != 4 || updated.Phone != "06 123 45 67" {
		t.Errorf("updated = %+v", updated)
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/participants", nil)
	list := decodeData[[]participantResponse](t, resp, body, http.StatusOK)
	if len(list) != 1 {
		t.Fatalf("got %d participants, want 1", len(list))
	}

	resp, _ = ts.do(t, http.MethodDelete, "/v1/participants/"+itoa(p.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, body = ts.do(t, http.MethodGet, "/v1/participants/"+itoa(p.ID), nil)
	expectError(t, resp, body, http.StatusNotFound)

	// Deleting again is not an error.
	resp, _ = ts.do(t, http.MethodDelete, "/v1/participants/"+itoa(p.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", resp.StatusCode)
	}
}

func TestDueLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	p := ts.createParticipant(t, "Dupont", "Jean", 3, "")

	// 3000 over 3 parcels gives 3 dues of 1000.
	resp, body := ts.do(t, http.MethodPost, "/v1/dues", addDueRequest{
		ParticipantID: p.ID, Month: 8, Year: 2025, Amount: 3000,
	})
	added := decodeData[addDueResponse](t, resp, body, http.StatusCreated)
	if len(added.Dues) != 3 {
		t.Fatalf("got %d dues, want 3", len(added.Dues))
	}
	for i, d := range added.Dues {
		if d.Slot != i+1 || d.Amount != 1000 || d.Paid || d.PaidOn != nil || d.Period != "2025-08" {
			t.Errorf("due %d = %+v", i, d)
		}
	}

	resp, body = ts.do(t, http.MethodPost, "/v1/dues", addDueRequest{
		ParticipantID: p.ID, Month: 8, Year: 2025, Amount: 3000,
	})
	expectError(t, resp, body, http.StatusConflict)

	resp, body = ts.do(t, http.MethodPost, "/v1/dues", addDueRequest{
		ParticipantID: p.ID, Month: 8, Year: 2024, Amount: 3000,
	})
	expectError(t, resp, body, http.StatusBadRequest)

	first := added.Dues[0]
	paid, amount := true, 800.0
	resp, body = ts.do(t, http.MethodPost, "/v1/dues/"+itoa(first.ID)+"/payment", paymentRequest{Paid: &paid, Amount: &amount})
	due := decodeData[dueResponse](t, resp, body, http.StatusOK)
	if !due.Paid || due.Amount != 800 || due.PaidOn == nil || *due.PaidOn != "2025-09-15" {
		t.Errorf("paid due = %+v", due)
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/dues?status=unpaid&year=2025", nil)
	unpaid := decodeData[[]dueResponse](t, resp, body, http.StatusOK)
	if len(unpaid) != 2 {
		t.Errorf("got %d unpaid dues, want 2", len(unpaid))
	}
	for _, d := range unpaid {
		if d.Surname != "Dupont" || d.GivenName != "Jean" {
			t.Errorf("unpaid due has name %q %q", d.Surname, d.GivenName)
		}
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/dues?status=maybe", nil)
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = ts.do(t, http.MethodGet, "/v1/participants/"+itoa(p.ID)+"/stats", nil)
	stats := decodeData[service.ParticipantStats](t, resp, body, http.StatusOK)
	if stats.PaidCount != 1 || stats.UnpaidCount != 2 || stats.PaidTotal.IntPart() != 800 || stats.UnpaidTotal.IntPart() != 2000 {
		t.Errorf("stats = %+v", stats)
	}

	resp, _ = ts.do(t, http.MethodDelete, "/v1/dues/"+itoa(first.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete due status = %d, want 204", resp.StatusCode)
	}
	resp, body = ts.do(t, http.MethodDelete, "/v1/dues/"+itoa(first.ID), nil)
	expectError(t, resp, body, http.StatusNotFound)

	// Participant history holds the creation, allocation, payment and deletion,
	// all recorded under the token's username.
	resp, body = ts.do(t, http.MethodGet, "/v1/participants/"+itoa(p.ID)+"/history", nil)
	entries := decodeData[[]historyResponse](t, resp, body, http.StatusOK)
	if len(entries) != 4 {
		t.Fatalf("got %d history entries, want 4", len(entries))
	}
	if entries[0].Action != string(models.ActionDelete) || entries[3].Table != string(models.TableParticipants) {
		t.Errorf("unexpected history order: %+v", entries)
	}
	for _, e := range entries {
		if e.Actor != "tresorier" {
			t.Errorf("actor = %q, want tresorier", e.Actor)
		}
	}
}

func TestGenerateAndDashboard(t *testing.T) {
	ts := setupTestServer(t)
	ts.createParticipant(t, "Martin", "Marie", 2, "")

	resp, body := ts.do(t, http.MethodPost, "/v1/dues/generate", generateRequest{Month: 9, Year: 2025})
	result := decodeData[service.GenerateResult](t, resp, body, http.StatusOK)
	if result.Created != 2 || result.Existing != 0 {
		t.Errorf("first run = %+v, want 2 created", result)
	}

	resp, body = ts.do(t, http.MethodPost, "/v1/dues/generate", generateRequest{Month: 9, Year: 2025})
	result = decodeData[service.GenerateResult](t, resp, body, http.StatusOK)
	if result.Created != 0 || result.Existing != 2 {
		t.Errorf("second run = %+v, want 2 existing", result)
	}

	resp, body = ts.do(t, http.MethodPost, "/v1/dues/generate", map[string]any{"month": 13, "year": 2025})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400 (%s)", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/reports/dashboard?year=2025", nil)
	dash := decodeData[service.Dashboard](t, resp, body, http.StatusOK)
	if dash.Participants != 1 || dash.TotalParcels != 2 || dash.UnpaidCount != 2 || dash.UnpaidAmount.IntPart() != 2000 {
		t.Errorf("dashboard = %+v", dash)
	}
	if len(dash.Years) != 1 || dash.Years[0] != 2025 {
		t.Errorf("years = %v, want [2025]", dash.Years)
	}
}

func TestImportAndExport(t *testing.T) {
	ts := setupTestServer(t)

	csvData := "nom,prenom,nombre_terrains,2025-08,2025-09\n" +
		"Dupont,Jean,2,2000,abc\n" +
		"Martin,Marie,1,1000,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cotisations.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte(csvData))
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/import?paid=true", &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	resp, body := ts.send(t, req)

	result := decodeData[service.ImportResult](t, resp, body, http.StatusOK)
	if result.Imported != 2 || result.ParticipantsCreated != 2 {
		t.Errorf("import = %+v, want 2 imported, 2 created", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Column != "2025-09" || result.Errors[0].Line != 2 {
		t.Errorf("errors = %+v, want one bad cell on line 2", result.Errors)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/reports/export.csv?year=2025", nil)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	resp, body = ts.send(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d (%s)", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 3 {
		t.Fatalf("export has %d lines, want 3:\n%s", len(lines), body)
	}
	if lines[0] != "nom,prenom,nombre_terrains,2025-08,TOTAL" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Dupont,Jean,2,2000,2000" {
		t.Errorf("first row = %q", lines[1])
	}

	resp, body = ts.do(t, http.MethodPost, "/v1/import", nil)
	expectError(t, resp, body, http.StatusBadRequest)
}

func TestReminders(t *testing.T) {
	ts := setupTestServer(t)
	p := ts.createParticipant(t, "Dupont", "Jean", 1, "06 123 45 67")
	ts.createParticipant(t, "Martin", "Marie", 1, "")

	resp, body := ts.do(t, http.MethodPost, "/v1/dues/generate", generateRequest{Month: 9, Year: 2025})
	decodeData[service.GenerateResult](t, resp, body, http.StatusOK)

	resp, body = ts.do(t, http.MethodGet, "/v1/reminders", nil)
	candidates := decodeData[[]reminderCandidateResponse](t, resp, body, http.StatusOK)
	if len(candidates) != 1 || candidates[0].Participant.ID != p.ID {
		t.Fatalf("candidates = %+v, want only the participant with a phone", candidates)
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/reminders/"+itoa(p.ID), nil)
	reminder := decodeData[reminderResponse](t, resp, body, http.StatusOK)
	if !strings.HasPrefix(reminder.Link, "https://wa.me/242061234567?text=") {
		t.Errorf("link = %q", reminder.Link)
	}
	if !strings.Contains(reminder.Message, "Sep 2025") {
		t.Errorf("message does not list the period: %q", reminder.Message)
	}
}

func TestHistoryFilters(t *testing.T) {
	ts := setupTestServer(t)
	ts.createParticipant(t, "Dupont", "Jean", 1, "")
	ts.createParticipant(t, "Martin", "Marie", 1, "")

	resp, body := ts.do(t, http.MethodGet, "/v1/history?table=participants&action=CREATE&limit=1", nil)
	entries := decodeData[[]historyResponse](t, resp, body, http.StatusOK)
	if len(entries) != 1 || entries[0].After["nom"] != "Martin" {
		t.Errorf("entries = %+v, want the latest creation", entries)
	}

	resp, body = ts.do(t, http.MethodGet, "/v1/history?table=users", nil)
	expectError(t, resp, body, http.StatusBadRequest)
}

func TestBackup(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/v1/admin/backup", nil)
	created := decodeData[backupResponse](t, resp, body, http.StatusCreated)
	if !strings.HasPrefix(created.File, "cotisations_backup_") {
		t.Errorf("file = %q", created.File)
	}

	files, err := backup.List(ts.backupDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("got %d backups, want 1", len(files))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
