package container

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/commitments-api/internal/auth"
	"github.com/saulo-duarte/commitments-api/internal/config"
	"github.com/saulo-duarte/commitments-api/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type api struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (a *api) call(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func newTestContainer(t *testing.T) (*Container, *api) {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "")
	auth.Init()
	config.App = config.Load()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, config.Migrate(db, models()...))

	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)
	c := Build(context.Background(), db, func() time.Time { return now })
	t.Cleanup(func() { c.Close() })

	return c, &api{t: t, handler: c.Router()}
}

func TestEndToEnd(t *testing.T) {
	c, a := newTestContainer(t)

	w := a.call(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = a.call(http.MethodGet, "/commitments", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.call(http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var prompts int64
	require.NoError(t, c.DB.Model(&reminder.ScheduledPrompt{}).Count(&prompts).Error)
	assert.Equal(t, int64(2), prompts, "registration seeds default prompts")

	w = a.call(http.MethodPost, "/auth/login", `{"username":"alice","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.NotEmpty(t, token.AccessToken)
	a.token = token.AccessToken

	w = a.call(http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.call(http.MethodPost, "/commitments", `{"task_description":"stretch","recurrence_pattern":"daily"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.call(http.MethodPost, "/chat", `{"message":"I'll call mom tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.call(http.MethodGet, "/commitments", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = a.call(http.MethodPost, "/chat", `{"message":"I'm feeling great"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "mood_recorded")

	w = a.call(http.MethodPost, "/checkins", `{"mood":3,"notes":"calmer now"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.call(http.MethodGet, "/checkins/today", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var today struct {
		Mood   int    `json:"mood"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Equal(t, 3, today.Mood)
	assert.Equal(t, "api", today.Source)

	w = a.call(http.MethodGet, "/chat/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = a.call(http.MethodGet, "/analytics/overview", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var overview struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, 2, overview.Total)

	w = a.call(http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
