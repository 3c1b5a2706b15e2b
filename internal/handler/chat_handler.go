// Package handler provides HTTP handlers for the chat agent.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-chat-agent/internal/domain"
	"github.com/hpn/hpn-chat-agent/internal/security"
	"github.com/tidwall/gjson"
)

const (
	problemContentType = "application/problem+json"

	// Context keys read by LoggingMiddleware.
	ctxKeyProvider = "provider"
)

var errInvalidBody = errors.New(`request body must be a JSON object with a "Message" string, a JSON string, or text/plain`)

// ChatRequest is the JSON object form of a chat request.
type ChatRequest struct {
	Message string `json:"Message"`
}

// ChatResponse carries the provider's reply.
type ChatResponse struct {
	Message string `json:"Message"`
}

// ProblemDetails is an RFC 9457 error body.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ChatHandler forwards chat messages to the provider bound at startup.
type ChatHandler struct {
	chat     domain.ChatService
	provider string
	logger   *slog.Logger
}

// ChatHandlerOption is a functional option for configuring ChatHandler.
type ChatHandlerOption func(*ChatHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ChatHandlerOption {
	return func(h *ChatHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithProviderName sets the provider name reported by the health endpoint.
func WithProviderName(name string) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.provider = name
	}
}

// NewChatHandler creates a ChatHandler around chat.
func NewChatHandler(chat domain.ChatService, opts ...ChatHandlerOption) *ChatHandler {
	h := &ChatHandler{
		chat:   chat,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		sendProblem(c, http.StatusBadRequest, "Invalid chat request", err.Error())
		return
	}

	message, err := parseMessage(body, c.ContentType())
	if err != nil {
		sendProblem(c, http.StatusBadRequest, "Invalid chat request", err.Error())
		return
	}

	c.Set(ctxKeyProvider, h.provider)
	h.logger.Info("received chat message", slog.Int("length", len(message)))

	reply, err := h.chat.GetResponse(c.Request.Context(), message)
	if err != nil {
		h.logger.Error("chat request failed", slog.String("error", err.Error()))
		sendProblem(c, http.StatusInternalServerError, "Error processing chat request", security.Redact(err.Error()))
		return
	}

	h.logger.Info("chat response sent", slog.Int("length", len(reply)))
	c.JSON(http.StatusOK, ChatResponse{Message: reply})
}

// HandleHealth handles GET /health
func (h *ChatHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"provider": h.provider,
	})
}

// parseMessage accepts {"Message": "..."} (field name case-insensitive),
// a bare JSON string, or a text/plain body. An empty message is allowed.
func parseMessage(body []byte, contentType string) (string, error) {
	if strings.HasPrefix(contentType, "text/plain") {
		return string(body), nil
	}

	if !gjson.ValidBytes(body) {
		return "", errInvalidBody
	}

	parsed := gjson.ParseBytes(body)
	switch {
	case parsed.Type == gjson.String:
		return parsed.Str, nil
	case parsed.IsObject():
		var (
			message string
			found   bool
		)
		parsed.ForEach(func(key, value gjson.Result) bool {
			if strings.EqualFold(key.Str, "message") && value.Type == gjson.String {
				message, found = value.Str, true
				return false
			}
			return true
		})
		if !found {
			return "", errInvalidBody
		}
		return message, nil
	default:
		return "", errInvalidBody
	}
}

// sendProblem writes an application/problem+json response.
func sendProblem(c *gin.Context, status int, title, detail string) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, ProblemDetails{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// problemType links the status code to its RFC 9110 section.
func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.1"
	default:
		return "https://tools.ietf.org/html/rfc9110#section-15.6.1"
	}
}
