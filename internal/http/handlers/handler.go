package handlers

import (
	"net/http"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/http/middleware"
	"stream_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// Services are the operations the callable endpoints expose.
type Services struct {
	Slots      *service.SlotService
	Gifts      *service.GiftService
	Payouts    *service.PayoutService
	Friends    *service.FriendService
	Moderation *service.ModerationService
	Reaper     *service.ReaperService
	Settings   *service.SettingsService
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// caller returns the authenticated user or writes an Unauthenticated reply.
func caller(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		fail(c, apperr.Unauthenticated("authentication required"))
		return "", false
	}
	return userID, true
}

// bind decodes the JSON body into req. An empty body is allowed.
func bind(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, apperr.InvalidArgument("invalid request body"))
		return false
	}
	return true
}

func succeed(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	c.JSON(apperr.HTTPStatus(code), gin.H{
		"success": false,
		"code":    code,
		"message": apperr.PublicMessage(err),
	})
}
