package handler

import (
	"github.com/emupost/backend/internal/server"
	"github.com/emupost/backend/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// WebhookHandler receives carrier parcel events on the external webhook
// surface. Signature verification happens in middleware before binding.
type WebhookHandler struct {
	Handler
	notifications *service.NotificationService
}

func NewWebhookHandler(s *server.Server, notifications *service.NotificationService) *WebhookHandler {
	return &WebhookHandler{
		Handler:       NewHandler(s),
		notifications: notifications,
	}
}

// ExternalEventRequest is the carrier's parcel event payload.
type ExternalEventRequest struct {
	OrderNo   string `json:"order_no" validate:"required,max=64"`
	WebhookID string `json:"webhook_id" validate:"required,max=64"`
	ParcelID  string `json:"parcel_id" validate:"required,max=64"`
	Status    string `json:"status" validate:"max=512"`
}

func (r *ExternalEventRequest) Validate() error {
	return validate.Struct(r)
}

// ExternalEventResponse acknowledges an accepted event.
type ExternalEventResponse struct {
	Accepted       bool  `json:"accepted"`
	NotificationID int64 `json:"notification_id,omitempty"`
}

// HandleExternalEvent queues a notification for the parcel's owner. The
// delivery itself is asynchronous; a 202 means the event was recorded.
func (h *WebhookHandler) HandleExternalEvent(c echo.Context, req *ExternalEventRequest) (*ExternalEventResponse, error) {
	id, err := h.notifications.HandleParcelEvent(c.Request().Context(), service.ParcelEvent{
		OrderNo:   req.OrderNo,
		WebhookID: req.WebhookID,
		ParcelID:  req.ParcelID,
		Status:    req.Status,
	})
	if err != nil {
		return nil, err
	}

	return &ExternalEventResponse{
		Accepted:       true,
		NotificationID: id,
	}, nil
}
