package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/user"
)

type MockService struct{ mock.Mock }
type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string, balanceCents int64) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role, balanceCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) ListMembers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) TimeIn(ctx context.Context, userID int, now time.Time) (*TimeSession, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TimeSession), args.Error(1)
}

func (m *MockService) TimeOut(ctx context.Context, userID int, now time.Time) (*TimeSession, int64, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*TimeSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockService) Toggle(ctx context.Context, userID int, now time.Time) (*ToggleResult, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ToggleResult), args.Error(1)
}

func (m *MockService) Status(ctx context.Context, userID int, now time.Time) (*StatusResult, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StatusResult), args.Error(1)
}

func (m *MockService) SessionsOn(ctx context.Context, userID int, day time.Time) ([]TimeSession, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TimeSession), args.Error(1)
}

func newHandlerTestRouter(svc Service, userRepo user.Repository, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})

	h := NewHandler(svc, userRepo)
	router.POST("/time/toggle", h.Toggle)
	router.GET("/time/live-balance", h.LiveBalance)
	router.POST("/admin/scan/:userID", h.Scan)

	return router
}

func TestToggleHandler_CheckIn(t *testing.T) {
	svc := new(MockService)
	svc.On("Toggle", mock.Anything, 7, mock.Anything).Return(&ToggleResult{
		Session:   &TimeSession{ID: 1, UserID: 7, IsActive: true},
		CheckedIn: true,
	}, nil)

	router := newHandlerTestRouter(svc, nil, 7)

	req := httptest.NewRequest("POST", "/time/toggle", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result ToggleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.CheckedIn)
	assert.True(t, result.Session.IsActive)
	svc.AssertExpectations(t)
}

func TestLiveBalanceHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("Status", mock.Anything, 7, mock.Anything).Return(&StatusResult{
		Active:           true,
		LiveCreditsCents: 500,
	}, nil)

	userRepo := new(MockUserRepo)
	userRepo.On("FindByID", mock.Anything, 7).Return(&user.User{ID: 7, BalanceCents: 1500}, nil)

	router := newHandlerTestRouter(svc, userRepo, 7)

	req := httptest.NewRequest("GET", "/time/live-balance", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1500), body["balance_cents"])
	assert.Equal(t, float64(500), body["live_credits_cents"])
	assert.Equal(t, float64(2000), body["projected_cents"])
	assert.Equal(t, true, body["session_active"])
}

func TestScanHandler_UnknownUser(t *testing.T) {
	svc := new(MockService)
	userRepo := new(MockUserRepo)
	userRepo.On("FindByID", mock.Anything, 99).Return(nil, sql.ErrNoRows)

	router := newHandlerTestRouter(svc, userRepo, 1)

	req := httptest.NewRequest("POST", "/admin/scan/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
}
