package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
	"github.com/LavaJover/shvark-monetico-service/internal/usecase"
	"github.com/jaevor/go-nanoid"
	"github.com/labstack/echo/v4"
)

// Receipts expected by the gateway in the response body.
const (
	ReceiptAccepted = "version=2\ncdr=0\n"
	ReceiptRejected = "version=2\ncdr=1\n"
)

type IPNHandler struct {
	uc          usecase.IPNUsecase
	log         *slog.Logger
	idGenerator func() string
}

func NewIPNHandler(uc usecase.IPNUsecase, log *slog.Logger) (*IPNHandler, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	return &IPNHandler{
		uc:          uc,
		log:         log,
		idGenerator: idGenerator,
	}, nil
}

func (h *IPNHandler) Register(e *echo.Echo) {
	e.POST("/monetico/ipn", h.Notify)
	e.GET("/monetico/notifications/:reference", h.GetNotifications)
}

// Notify handles the gateway callback. Validation failures are acknowledged
// with cdr=1 and status 200; internal failures answer 503 so the gateway
// retries later.
func (h *IPNHandler) Notify(c echo.Context) error {
	requestID := h.idGenerator()
	req := c.Request()

	if err := req.ParseForm(); err != nil {
		h.log.WarnContext(req.Context(), "unreadable notification body", "request_id", requestID, "error", err.Error())
		return c.String(http.StatusOK, ReceiptRejected)
	}

	fields := make(map[string]string, len(req.PostForm))
	for key, values := range req.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	_, err := h.uc.HandleNotification(req.Context(), requestID, fields)
	switch {
	case err == nil:
		return c.String(http.StatusOK, ReceiptAccepted)
	case errors.Is(err, domain.ErrNotificationRejected):
		return c.String(http.StatusOK, ReceiptRejected)
	default:
		h.log.ErrorContext(req.Context(), "failed to handle notification", "request_id", requestID, "error", err.Error())
		return c.String(http.StatusServiceUnavailable, ReceiptRejected)
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *IPNHandler) GetNotifications(c echo.Context) error {
	reference := c.Param("reference")

	output, err := h.uc.GetNotifications(c.Request().Context(), reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}
		h.log.ErrorContext(c.Request().Context(), "failed to get notifications", "reference", reference, "error", err.Error())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, output)
}
