package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/mocks"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/repositories"
)

func setupNotificationRouter(h *NotificationHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	inject := func(c *gin.Context) { c.Set("userID", userID) }
	router.GET("/notifications", inject, h.ListNotifications)
	router.PATCH("/notifications/:notification_id/read", inject, h.MarkNotificationRead)
	return router
}

func TestListNotificationsOK(t *testing.T) {
	notificationRepo := new(mocks.NotificationRepositoryMock)
	notificationRepo.On("ListForUser", mock.Anything, "alice").Return([]models.Notification{
		{ID: "n1", UserID: "alice", Type: models.NotificationTypeClaimCode},
	}, nil).Once()

	router := setupNotificationRouter(NewNotificationHandler(notificationRepo), "alice")
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, models.NotificationTypeClaimCode, resp.Notifications[0].Type)
	notificationRepo.AssertExpectations(t)
}

func TestMarkNotificationReadNoContent(t *testing.T) {
	notificationRepo := new(mocks.NotificationRepositoryMock)
	notificationRepo.On("MarkRead", mock.Anything, "n1", "alice").Return(nil).Once()

	router := setupNotificationRouter(NewNotificationHandler(notificationRepo), "alice")
	req := httptest.NewRequest(http.MethodPatch, "/notifications/n1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	notificationRepo.AssertExpectations(t)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	notificationRepo := new(mocks.NotificationRepositoryMock)
	notificationRepo.On("MarkRead", mock.Anything, "missing", "alice").Return(repositories.ErrNotificationNotFound).Once()

	router := setupNotificationRouter(NewNotificationHandler(notificationRepo), "alice")
	req := httptest.NewRequest(http.MethodPatch, "/notifications/missing/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
