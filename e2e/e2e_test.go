//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"welfare-app-go/internal/auth"
	"welfare-app-go/internal/config"
	"welfare-app-go/internal/db"
	admindomain "welfare-app-go/internal/domain/admin"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/domain/notification"
	"welfare-app-go/internal/mailer"
	memberrepo "welfare-app-go/internal/repository/postgres/member"
	notificationrepo "welfare-app-go/internal/repository/postgres/notification"
	"welfare-app-go/internal/transport/httpserver"
	"welfare-app-go/internal/transport/httpserver/handler"
	adminhandler "welfare-app-go/internal/transport/httpserver/handler/admin"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	membershandler "welfare-app-go/internal/transport/httpserver/handler/members"
	"welfare-app-go/pkg/logger"
)

const (
	adminEmail    = "root@welfare.test"
	adminPassword = "rootpass"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	worker *notification.Worker
	outbox *recordingSender
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, msg := range s.sent {
		out = append(out, msg.To)
	}
	return out
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Nop()
	cfg := config.Config{
		Env:           config.EnvDevelopment,
		DBDriver:      config.DriverPostgres,
		DB:            config.DBConfig{DSN: dsn},
		MaxUploadSize: 5 << 20,
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if err := db.Migrate(dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	tokens := auth.NewManager("e2e-secret", time.Hour)
	jobs := notificationrepo.NewPostgres(dbConn)
	notifications := notification.NewService(jobs, log)
	members := member.NewService(memberrepo.NewPostgres(dbConn), tokens, log,
		member.WithNotifier(notifications),
		member.WithPasswordCost(bcrypt.MinCost),
	)
	admins, err := admindomain.NewService(adminEmail, adminPassword, tokens)
	if err != nil {
		t.Fatalf("admin service: %v", err)
	}

	outbox := &recordingSender{}
	worker := notification.NewWorker(jobs, notification.NewFanout(outbox, "noreply@welfare.test", log, nil),
		notification.WorkerConfig{BaseDelay: time.Millisecond}, log, nil)

	respond := common.Responder{ExposeErrors: true}
	handlers := handler.New(
		common.New(db.NewGormPinger(dbConn), respond, log),
		membershandler.New(members, respond, cfg.MaxUploadSize, log),
		adminhandler.New(admins, notifications, respond, log),
	)

	router := httpserver.NewRouter(cfg, httpserver.Deps{Handlers: handlers, Tokens: tokens}, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, db: dbConn, worker: worker, outbox: outbox}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE notification_jobs, members",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type memberResponse struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Age     *int   `json:"age"`
	Status  string `json:"status"`
	Nominee struct {
		BankAccountNumber string `json:"bankAccountNumber"`
	} `json:"nominee"`
}

type statusResponse struct {
	Message string         `json:"message"`
	Member  memberResponse `json:"member"`
}

type jobResponse struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Status    string   `json:"status"`
	MemberID  string   `json:"memberId"`
	Delivered []string `json:"delivered"`
}

func registration(name, email, phone string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"phone":    phone,
		"email":    email,
		"password": "secret1",
		"nominee": map[string]interface{}{
			"name":                     "Nominee of " + name,
			"email":                    "nominee." + email,
			"bankAccountNumber":        "1234567890",
			"confirmBankAccountNumber": "1234567890",
			"ifscCode":                 "SBIN0000001",
			"bankHolderName":           name,
		},
		"familyMember1": map[string]interface{}{
			"name":  "Family of " + name,
			"email": "family." + email,
		},
	}
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func TestE2EHealth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status: %d body=%s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health/ready", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status: %d body=%s", resp.StatusCode, string(body))
	}
}

func TestE2ERegistrationFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL + "/api/engineers"

	resp, body := requestJSON(t, client, http.MethodPost, base+"/register", "", registration("Ada", "ada@example.com", "111"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d body=%s", resp.StatusCode, string(body))
	}
	var session sessionResponse
	decode(t, body, &session)
	if session.ID == "" || session.Token == "" {
		t.Fatalf("register returned empty session: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/register", "", registration("Ada Again", "ADA@example.com", "222"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status: %d body=%s", resp.StatusCode, string(body))
	}
	var conflict errorBody
	decode(t, body, &conflict)
	if conflict.Message != "Engineer with this email or phone already exists" {
		t.Fatalf("unexpected conflict message: %q", conflict.Message)
	}

	// The same contact details are free in the other category.
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/doctors/register", "", registration("Ada", "ada@example.com", "111"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("doctor register status: %d body=%s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status: %d body=%s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/login", "", map[string]string{
		"email":    "Ada@Example.com",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d body=%s", resp.StatusCode, string(body))
	}
	var login sessionResponse
	decode(t, body, &login)
	if login.ID != session.ID {
		t.Fatalf("login id %q, want %q", login.ID, session.ID)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/"+session.ID, login.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %d body=%s", resp.StatusCode, string(body))
	}
	var fetched memberResponse
	decode(t, body, &fetched)
	if fetched.Status != string(member.StatusPending) || fetched.Nominee.BankAccountNumber != "1234567890" {
		t.Fatalf("unexpected member: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPatch, base+"/"+session.ID+"/profile", login.Token, map[string]interface{}{
		"age": "30",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d body=%s", resp.StatusCode, string(body))
	}
	var updated memberResponse
	decode(t, body, &updated)
	if updated.Age == nil || *updated.Age != 30 {
		t.Fatalf("age not updated: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"?status=pending", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %d body=%s", resp.StatusCode, string(body))
	}
	var listed []memberResponse
	decode(t, body, &listed)
	if len(listed) != 1 || listed[0].ID != session.ID {
		t.Fatalf("unexpected list: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPatch, base+"/"+session.ID+"/approve", "", map[string]string{
		"disease": "none",
		"message": "welcome",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status: %d body=%s", resp.StatusCode, string(body))
	}
	var approved statusResponse
	decode(t, body, &approved)
	if approved.Message != "Approved" || approved.Member.Status != string(member.StatusApproved) {
		t.Fatalf("unexpected approve response: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/"+session.ID+"/deceased", "", map[string]string{
		"reason": "illness",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deceased status: %d body=%s", resp.StatusCode, string(body))
	}
	var deceased statusResponse
	decode(t, body, &deceased)
	if deceased.Message != "Engineer marked deceased" || deceased.Member.Status != string(member.StatusDeceased) {
		t.Fatalf("unexpected deceased response: %s", string(body))
	}
}

func TestE2ENotificationOutbox(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/doctors/register", "", registration("Grace", "grace@example.com", "333"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d body=%s", resp.StatusCode, string(body))
	}
	var session sessionResponse
	decode(t, body, &session)

	if processed := env.worker.ProcessOnce(context.Background()); processed != 1 {
		t.Fatalf("processed %d jobs, want 1", processed)
	}

	recipients := env.outbox.recipients()
	want := map[string]bool{
		"grace@example.com":         true,
		"nominee.grace@example.com": true,
		"family.grace@example.com":  true,
	}
	if len(recipients) != len(want) {
		t.Fatalf("sent to %v", recipients)
	}
	for _, to := range recipients {
		if !want[to] {
			t.Fatalf("unexpected recipient %q in %v", to, recipients)
		}
	}

	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/admin/login", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login status: %d body=%s", resp.StatusCode, string(body))
	}
	var admin struct {
		Token string `json:"token"`
	}
	decode(t, body, &admin)

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/admin/notifications?status=completed", admin.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications status: %d body=%s", resp.StatusCode, string(body))
	}
	var jobs []jobResponse
	decode(t, body, &jobs)
	if len(jobs) != 1 || jobs[0].MemberID != session.ID || jobs[0].Kind != string(notification.KindWelcome) {
		t.Fatalf("unexpected jobs: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/admin/notifications/"+jobs[0].ID+"/retry", admin.Token, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("retry completed job status: %d body=%s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/admin/notifications", session.Token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member notifications status: %d body=%s", resp.StatusCode, string(body))
	}
}
