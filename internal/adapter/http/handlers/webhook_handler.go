package handlers

import (
	"errors"
	"net/http"

	response "payment_gateway/internal/adapter/http/dto/response"
	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/logging"
	"payment_gateway/internal/usecase"
	"payment_gateway/internal/usecase/interfaces"
	"payment_gateway/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives provider notifications.
type WebhookHandler struct {
	dispatcher usecase.IWebhookDispatcher
	log        *zap.Logger
}

func NewWebhookHandler(dispatcher usecase.IWebhookDispatcher, log *zap.Logger) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{dispatcher: dispatcher, log: log.Named("http.webhook")}
}

// ReceiveWebhook acknowledges every event of a known provider, including the
// ones it rejected or had already seen. Only transient failures answer 500 so
// the provider redelivers.
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	provider := c.Param("provider")
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}

	event, err := h.dispatcher.Dispatch(c.Request.Context(), provider, interfaces.WebhookRequest{
		Headers: c.Request.Header.Clone(),
		Query:   c.Request.URL.Query(),
		Body:    body,
	})
	if err != nil {
		if errors.Is(err, entities.ErrUnknownProvider) {
			appErr := pkg.NewDomainErrorSimple("UNKNOWN_PROVIDER", "Unknown payment provider", http.StatusNotFound)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		h.log.Error("webhook processing failed", logging.Provider(provider), zap.String("event_id", event.ID), zap.Error(err))
		appErr := pkg.NewDomainError("WEBHOOK_RETRY", "Webhook could not be applied; retry later", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromWebhookEvent(event))
}
