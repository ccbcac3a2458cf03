//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canis-majoris/instantly-assignment-v3/internal/api/handlers"
	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/canis-majoris/instantly-assignment-v3/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIIntegrationTestSuite tests the full handler stack against a real
// postgres database.
type APIIntegrationTestSuite struct {
	suite.Suite
	container    testcontainers.Container
	db           *gorm.DB
	echo         *echo.Echo
	emailHandler *handlers.EmailHandler
	emailRepo    repository.EmailRepository
	statsRepo    repository.StatsRepository
}

// SetupSuite starts the postgres container and wires handlers
func (s *APIIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "emails_api_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=emails_api_test sslmode=disable",
		host, port.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	s.db = db

	err = db.AutoMigrate(&models.Email{}, &models.EmailStats{})
	require.NoError(s.T(), err)

	s.emailRepo = repository.NewEmailRepository(db)
	s.statsRepo = repository.NewStatsRepository(db)
	s.emailHandler = handlers.NewEmailHandler(s.emailRepo, s.statsRepo, nil, nil)

	s.echo = echo.New()
}

// TearDownSuite stops the postgres container
func (s *APIIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// SetupTest cleans up data before each test
func (s *APIIntegrationTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE TABLE emails, email_stats RESTART IDENTITY CASCADE")
}

// TestAPIIntegrationTestSuite runs the test suite
func TestAPIIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(APIIntegrationTestSuite))
}

func (s *APIIntegrationTestSuite) seed(threadID string, mut func(*models.Email)) *models.Email {
	email := &models.Email{
		ThreadID:  threadID,
		Subject:   "Seeded",
		Sender:    "sender@example.com",
		Recipient: "me@example.com",
		Content:   "body",
		Direction: models.DirectionIncoming,
	}
	if mut != nil {
		mut(email)
	}
	require.NoError(s.T(), s.emailRepo.Create(context.Background(), email))
	return email
}

func (s *APIIntegrationTestSuite) jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return s.echo.NewContext(req, rec), rec
}

func (s *APIIntegrationTestSuite) decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==================== Compose ====================

func (s *APIIntegrationTestSuite) TestCompose_CreatesOutgoingReadEmail() {
	c, rec := s.jsonRequest(http.MethodPost, "/api/emails",
		`{"subject":"Hello","to":"a@b.com","content":"hi"}`)

	err := s.emailHandler.Create(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusCreated, rec.Code)

	body := s.decode(rec)
	assert.Equal(s.T(), "success", body["status"])
	email := body["email"].(map[string]interface{})
	assert.Equal(s.T(), "outgoing", email["direction"])
	assert.Equal(s.T(), true, email["isRead"])
	assert.NotEmpty(s.T(), email["threadId"])
}

func (s *APIIntegrationTestSuite) TestCompose_BlankSubjectRejected() {
	c, rec := s.jsonRequest(http.MethodPost, "/api/emails", `{"subject":"","to":"a@b.com"}`)

	err := s.emailHandler.Create(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "error", s.decode(rec)["status"])
}

// ==================== List ====================

func (s *APIIntegrationTestSuite) TestList_InboxExcludesDeletedAndOutgoing() {
	s.seed("t1", nil)
	s.seed("t2", func(e *models.Email) { e.IsDeleted = true })
	s.seed("t3", func(e *models.Email) { e.Direction = models.DirectionOutgoing })

	req := httptest.NewRequest(http.MethodGet, "/api/emails?filter=inbox", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.List(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), float64(1), s.decode(rec)["count"])
}

func (s *APIIntegrationTestSuite) TestList_TrashShowsOnlyDeleted() {
	s.seed("t1", nil)
	s.seed("t2", func(e *models.Email) { e.IsDeleted = true })

	req := httptest.NewRequest(http.MethodGet, "/api/emails?filter=trash", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.List(c)

	require.NoError(s.T(), err)
	body := s.decode(rec)
	assert.Equal(s.T(), float64(1), body["count"])
	emails := body["emails"].([]interface{})
	first := emails[0].(map[string]interface{})
	assert.Equal(s.T(), true, first["isDeleted"])
}

func (s *APIIntegrationTestSuite) TestList_ThreadedCollapsesThreads() {
	s.seed("t1", nil)
	s.seed("t1", nil)
	s.seed("t2", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/emails?filter=inbox&threaded=true", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.List(c)

	require.NoError(s.T(), err)
	body := s.decode(rec)
	assert.Equal(s.T(), float64(2), body["count"])

	// Each row carries the thread's matching-member count
	counts := map[string]float64{}
	for _, row := range body["emails"].([]interface{}) {
		summary := row.(map[string]interface{})
		counts[summary["threadId"].(string)] = summary["messageCount"].(float64)
	}
	assert.Equal(s.T(), map[string]float64{"t1": 2, "t2": 1}, counts)
}

func (s *APIIntegrationTestSuite) TestList_SearchMatchesSubject() {
	s.seed("t1", func(e *models.Email) { e.Subject = "Quarterly Report" })
	s.seed("t2", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/emails?filter=inbox&query=report", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.List(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), float64(1), s.decode(rec)["count"])
}

// ==================== Update ====================

func (s *APIIntegrationTestSuite) TestUpdate_MarkReadAndStatsRefresh() {
	email := s.seed("t1", nil)

	c, rec := s.jsonRequest(http.MethodPatch, "/api/emails",
		fmt.Sprintf(`{"id":%d,"isRead":true}`, email.ID))

	err := s.emailHandler.Update(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	body := s.decode(rec)
	assert.Equal(s.T(), "success", body["status"])
	stats := body["stats"].(map[string]interface{})
	assert.Equal(s.T(), float64(0), stats["unreadCount"])

	updated, err := s.emailRepo.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), updated.IsRead)
}

func (s *APIIntegrationTestSuite) TestUpdate_WholeThread() {
	s.seed("t1", nil)
	s.seed("t1", nil)

	c, rec := s.jsonRequest(http.MethodPatch, "/api/emails",
		`{"threadId":"t1","isImportant":true}`)

	err := s.emailHandler.Update(c)

	require.NoError(s.T(), err)
	body := s.decode(rec)
	emails := body["emails"].([]interface{})
	assert.Len(s.T(), emails, 2)
	for _, raw := range emails {
		assert.Equal(s.T(), true, raw.(map[string]interface{})["isImportant"])
	}
}

func (s *APIIntegrationTestSuite) TestUpdate_NonexistentIDReturns404() {
	c, rec := s.jsonRequest(http.MethodPatch, "/api/emails", `{"id":99999,"isRead":true}`)

	err := s.emailHandler.Update(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	assert.Equal(s.T(), "error", s.decode(rec)["status"])
}

// ==================== Delete and restore ====================

func (s *APIIntegrationTestSuite) TestDelete_MovesToTrashAndBack() {
	email := s.seed("t1", nil)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/emails?id=%d", email.ID), nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.Delete(c)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	deleted, err := s.emailRepo.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), deleted.IsDeleted)

	// Restore via PATCH isDeleted=false
	c, rec = s.jsonRequest(http.MethodPatch, "/api/emails",
		fmt.Sprintf(`{"id":%d,"isDeleted":false}`, email.ID))
	err = s.emailHandler.Update(c)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	restored, err := s.emailRepo.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), restored.IsDeleted)
}

func (s *APIIntegrationTestSuite) TestDelete_ThreadScopedByImportantFilter() {
	s.seed("t1", func(e *models.Email) { e.IsImportant = true })
	s.seed("t1", nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/emails?threadId=t1&filter=important", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.Delete(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), s.decode(rec)["message"], "1 email(s)")

	remaining, err := s.emailRepo.ListThread(context.Background(), "t1", repository.FilterInbox)
	require.NoError(s.T(), err)
	assert.Len(s.T(), remaining, 1)
}

// ==================== Stats ====================

func (s *APIIntegrationTestSuite) TestStats_ReflectsMutations() {
	s.seed("t1", nil)
	s.seed("t2", func(e *models.Email) { e.IsImportant = true })
	s.seed("t3", func(e *models.Email) {
		e.Direction = models.DirectionOutgoing
		e.IsRead = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/emails/stats", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	err := s.emailHandler.Stats(c)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	stats := s.decode(rec)["stats"].(map[string]interface{})
	assert.Equal(s.T(), float64(3), stats["totalEmails"])
	assert.Equal(s.T(), float64(2), stats["unreadCount"])
	assert.Equal(s.T(), float64(1), stats["importantCount"])
	assert.Equal(s.T(), float64(1), stats["sentCount"])
	assert.Equal(s.T(), float64(0), stats["deletedCount"])
}

// ==================== Thread ====================

func (s *APIIntegrationTestSuite) TestThread_ReturnsOldestFirst() {
	first := s.seed("t1", nil)
	second := s.seed("t1", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/emails/thread/t1", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetParamNames("threadId")
	c.SetParamValues("t1")

	err := s.emailHandler.Thread(c)

	require.NoError(s.T(), err)
	body := s.decode(rec)
	emails := body["emails"].([]interface{})
	require.Len(s.T(), emails, 2)
	assert.Equal(s.T(), float64(first.ID), emails[0].(map[string]interface{})["id"])
	assert.Equal(s.T(), float64(second.ID), emails[1].(map[string]interface{})["id"])
}
