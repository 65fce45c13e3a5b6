package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/preschool-social/backend/internal/handlers"
	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/internal/router"
	"github.com/anonto42/preschool-social/backend/internal/services"
	"github.com/anonto42/preschool-social/backend/internal/validators"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{"email": uid + "@school.test"}}, nil
}

type recordingBlobStore struct {
	folder, filename, contentType string
	body                          []byte
}

func (r *recordingBlobStore) Upload(_ context.Context, folder, filename, contentType string, src io.Reader) (string, error) {
	if !services.ValidFolder(folder) {
		return "", services.ErrInvalidFolder
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	r.folder, r.filename, r.contentType, r.body = folder, filename, contentType, body
	return "https://files.test/" + folder + "/" + filename, nil
}

type testServer struct {
	e        *echo.Echo
	verifier fakeVerifier
}

func newTestServer(t *testing.T, blobs services.BlobStore) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repositories.AutoMigrate(db, true))

	bus := realtime.NewBus(zap.NewNop())
	t.Cleanup(func() {
		_ = bus.Close()
		_ = sqlDB.Close()
	})

	verifier := fakeVerifier{}
	deps := router.Dependencies{
		SQL:        db,
		Bus:        bus,
		Verifier:   verifier,
		JWTSecret:  "handler-test-secret",
		SessionTTL: time.Hour,
		FeedLimit:  50,
	}
	if blobs != nil {
		deps.Blobs = blobs
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler()
	router.SetupRoutes(e, router.NewServices(deps), deps, router.Options{
		AllowedOrigins: []string{"*"},
		HealthChecks: map[string]func(ctx context.Context) error{
			"sql": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		},
	})
	return &testServer{e: e, verifier: verifier}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// register signs uid up and returns its session token
func (s *testServer) register(t *testing.T, uid, name string) string {
	t.Helper()
	s.verifier["id-"+uid] = uid
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"id_token":     "id-" + uid,
		"display_name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handlers.AuthResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) complete(t *testing.T, token string) {
	t.Helper()
	rec := s.do(t, http.MethodPut, "/api/v1/profile/complete", token, map[string]string{
		"bio":        "Kindergarten teacher",
		"location":   "Lisbon",
		"avatar_url": "https://files.test/avatar.png",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (s *testServer) share(t *testing.T, token, text string) models.ContentItem {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/content/share", token, map[string]string{"text": text})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item models.ContentItem
	decode(t, rec, &item)
	return item
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"sql":"ok"`)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.register(t, "ada", "Ada Lovelace")

	rec := s.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.Profile
	decode(t, rec, &profile)
	assert.Equal(t, "ada", profile.ID)
	assert.Equal(t, "adalovelace", profile.Handle)
	assert.Equal(t, "ada@school.test", profile.Email)

	// Registering again keeps the stored profile.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"id_token": "id-ada", "display_name": "Someone Else"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var again handlers.AuthResponse
	decode(t, rec, &again)
	assert.Equal(t, "Ada Lovelace", again.Profile.DisplayName)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"id_token": "id-ada"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login handlers.AuthResponse
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token)

	// The raw identity provider token is accepted as a bearer too.
	rec = s.do(t, http.MethodGet, "/api/v1/profile", "id-ada", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/feed", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"id_token": "unknown"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid identity that never registered has no profile.
	s.verifier["id-ghost"] = "ghost"
	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"id_token": "id-ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrorsListFields(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"id_token": "x", "display_name": "A"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handlers.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "must be at least 2 characters", resp.Fields["display_name"])
}

func TestProfileUpdateAndFollow(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	s.register(t, "b", "Ben Berg")

	rec := s.do(t, http.MethodPatch, "/api/v1/profile", a, map[string]string{"bio": "Loves painting"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Profile
	decode(t, rec, &updated)
	assert.Equal(t, "Loves painting", updated.Bio)
	assert.Equal(t, "Anna Ames", updated.DisplayName)

	rec = s.do(t, http.MethodPost, "/api/v1/users/b/follow", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.Profile
	decode(t, rec, &me)
	assert.Equal(t, []string{"b"}, me.FollowingIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/users/b/followers", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var followers []models.ProfileCompact
	decode(t, rec, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, "a", followers[0].ID)

	rec = s.do(t, http.MethodPost, "/api/v1/users/a/follow", a, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/users/b/follow", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &me)
	assert.Empty(t, me.FollowingIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/users/nobody", a, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")

	rec := s.do(t, http.MethodPost, "/api/v1/content/share", a, map[string]string{"text": "Hello class"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "profile not completed yet")

	s.complete(t, a)
	item := s.share(t, a, "Hello class")
	assert.Equal(t, models.KindShare, item.Kind)
	assert.Equal(t, "a", item.AuthorID)
	assert.Zero(t, item.LikeCount)

	rec = s.do(t, http.MethodPost, "/api/v1/content/video", a, map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/content/project", a, map[string]interface{}{
		"title":       "Garden",
		"description": "Grow beans",
		"goals":       []string{"patience"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var project models.ContentItem
	decode(t, rec, &project)
	require.NotNil(t, project.Project)
	assert.Equal(t, []string{"a"}, project.Project.ParticipantIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/content/shares/"+item.ID, b, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/users/a/content/project", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []models.ContentItem
	decode(t, rec, &projects)
	assert.Len(t, projects, 1)

	rec = s.do(t, http.MethodDelete, "/api/v1/content/share/"+item.ID, b, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/content/share/"+item.ID, a, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/content/share/"+item.ID, a, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikesAndComments(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")
	s.complete(t, a)
	item := s.share(t, a, "Finger painting today")
	base := "/api/v1/content/share/" + item.ID

	rec := s.do(t, http.MethodPost, base+"/likes", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var liked models.ContentItem
	decode(t, rec, &liked)
	assert.Equal(t, int64(1), liked.LikeCount)

	rec = s.do(t, http.MethodPost, base+"/likes", b, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/likes/status", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status handlers.LikeStatus
	decode(t, rec, &status)
	assert.Equal(t, handlers.LikeStatus{Liked: true, LikeCount: 1}, status)

	rec = s.do(t, http.MethodDelete, base+"/likes", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, base+"/likes", b, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/comments", b, map[string]string{"body": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/comments", b, map[string]string{"body": "Lovely!"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var comments []models.CommentView
	decode(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "Lovely!", comments[0].Body)
	assert.Equal(t, "Ben Berg", comments[0].Author.DisplayName)

	rec = s.do(t, http.MethodGet, base+"/comments", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &comments)
	assert.Len(t, comments, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":2}`, rec.Body.String(), "one like and one comment")
}

func TestFeed(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")
	s.complete(t, a)
	item := s.share(t, a, "Circle time")

	rec := s.do(t, http.MethodGet, "/api/v1/feed?type=videos", b, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/feed", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []models.FeedItem
	decode(t, rec, &feed)
	assert.Empty(t, feed, "b follows nobody")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/a/follow", b, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/content/share/"+item.ID+"/likes", b, nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/feed?type=shares", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, item.ID, feed[0].ID)
	assert.True(t, feed[0].IsLiked)
	assert.Equal(t, "Anna Ames", feed[0].Author.DisplayName)

	rec = s.do(t, http.MethodGet, "/api/v1/feed?type=projects", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &feed)
	assert.Empty(t, feed)
}

func TestNotificationsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")
	c := s.register(t, "c", "Cleo Cruz")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/a/follow", b, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/a/follow", c, nil).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/notifications", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Notification
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].SenderID, "newest first")
	assert.False(t, list[0].Read)

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/read", a, map[string][]string{"ids": {list[0].ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/v1/notifications/"+list[1].ID, b, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "only the recipient can dismiss")

	rec = s.do(t, http.MethodDelete, "/api/v1/notifications/"+list[1].ID, a, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/notifications", a, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/notifications", a, nil)
	decode(t, rec, &list)
	assert.Empty(t, list)

	rec = s.do(t, http.MethodPost, "/api/v1/devices", a, map[string]string{"token": "device-1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/devices/device-1", b, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/devices/device-1", a, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMessaging(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/b/follow", a, nil).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/contacts", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var contacts []models.ProfileCompact
	decode(t, rec, &contacts)
	require.Len(t, contacts, 1)
	assert.Equal(t, "a", contacts[0].ID)

	rec = s.do(t, http.MethodPost, "/api/v1/messages/b", a, map[string]string{"body": "See you at recess"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/messages/nobody", a, map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/messages/unread-count", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":1}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/messages/a", b, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread []models.Message
	decode(t, rec, &thread)
	require.Len(t, thread, 1)
	assert.Equal(t, "See you at recess", thread[0].Body)
	assert.True(t, thread[0].Read, "opening the thread marks it read")

	rec = s.do(t, http.MethodGet, "/api/v1/messages/unread-count", b, nil)
	assert.JSONEq(t, `{"unread_count":0}`, rec.Body.String())
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	s.complete(t, a)
	s.share(t, a, "Rainbow painting with toddlers")
	rec := s.do(t, http.MethodPost, "/api/v1/content/activity", a, map[string]string{
		"title": "Finger painting", "description": "Primary colors on big paper", "age_group": "3-4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/search?q=", a, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/search?q=RAINBOW", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results models.SearchResults
	decode(t, rec, &results)
	assert.Len(t, results.Shares, 1)
	assert.Empty(t, results.Projects)
	assert.Empty(t, results.Activities)

	rec = s.do(t, http.MethodGet, "/api/v1/search?q=painting", a, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results = models.SearchResults{}
	decode(t, rec, &results)
	assert.Len(t, results.Shares, 1)
	require.Len(t, results.Activities, 1)
	assert.Equal(t, "Finger painting", results.Activities[0].Title)

	rec = s.do(t, http.MethodGet, "/api/v1/search?q=anna", a, nil)
	decode(t, rec, &results)
	require.Len(t, results.Users, 1)
	assert.Equal(t, "a", results.Users[0].ID)
}

func multipartImage(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="poster.PNG"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	blobs := &recordingBlobStore{}
	s := newTestServer(t, blobs)
	a := s.register(t, "a", "Anna Ames")

	upload := func(folder, contentType string) *httptest.ResponseRecorder {
		body, ct := multipartImage(t, contentType)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/"+folder, body)
		req.Header.Set(echo.HeaderContentType, ct)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a)
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("projectPosters", "image/png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"url":"https://files.test/projectPosters/poster.PNG"}`, rec.Body.String())
	assert.Equal(t, "image/png", blobs.contentType)
	assert.Equal(t, []byte("png-bytes"), blobs.body)

	assert.Equal(t, http.StatusBadRequest, upload("secrets", "image/png").Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, upload("shareImages", "text/plain").Code)
}

func TestUploadWithoutBucket(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")

	rec := s.do(t, http.MethodPost, "/api/v1/uploads/shareImages", a, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotificationStreamMarksDeliveredRead(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register(t, "a", "Anna Ames")
	b := s.register(t, "b", "Ben Berg")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/a/follow", b, nil).Code)

	srv := httptest.NewServer(s.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream/notifications?token=" + a
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() []models.Notification {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var list []models.Notification
		require.NoError(t, conn.ReadJSON(&list))
		return list
	}

	first := read()
	require.Len(t, first, 1)
	assert.Equal(t, models.NotificationFollow, first[0].Kind)
	assert.False(t, first[0].Read, "the first snapshot shows what was new")

	second := read()
	require.Len(t, second, 1)
	assert.True(t, second[0].Read)

	rec := s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", a, nil)
	assert.JSONEq(t, `{"unread_count":0}`, rec.Body.String())
}

func TestStreamRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream/feed"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorHandlerMapping(t *testing.T) {
	e := echo.New()
	h := handlers.NewHTTPErrorHandler()

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{&repositories.TransientError{Op: "get user", Err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, `{"error":"store unavailable, try again","retryable":true}`},
		{errors.Wrap(services.ErrNotFound, "get item"), http.StatusNotFound, `{"error":"record not found"}`},
		{services.ErrAlreadyLiked, http.StatusConflict, `{"error":"item already liked"}`},
		{services.ErrProfileIncomplete, http.StatusForbidden, `{"error":"profile must be completed first"}`},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, `{"error":"short and stout"}`},
		{errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			h(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}
