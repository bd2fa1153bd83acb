package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/gate"
	"github.com/JLSed/ShoeFreak-Admin/internal/identity"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
	"github.com/JLSed/ShoeFreak-Admin/pkg/response"
)

// AccessGate is the surface the HTTP layer needs from the gate. The
// client key scopes last-route-wins tracking to one caller; an empty
// key means an anonymous, stateless evaluation.
type AccessGate interface {
	Evaluate(ctx context.Context, client, route string) (gate.Evaluation, error)
}

// HTTPHandler exposes the gate and the conversation store over REST.
type HTTPHandler struct {
	gate     AccessGate
	messages repository.MessageStore
	recorder audit.Recorder
}

// NewHTTPHandler creates the REST handler.
func NewHTTPHandler(g AccessGate, messages repository.MessageStore, recorder audit.Recorder) *HTTPHandler {
	return &HTTPHandler{
		gate:     g,
		messages: messages,
		recorder: recorder,
	}
}

// RegisterRoutes mounts the API.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, m *SessionMiddleware) {
	api := r.Group("/api/v1")
	{
		api.GET("/gate/evaluate", m.Attach(), h.EvaluateRoute)

		protected := api.Group("", m.RequireSession())
		{
			protected.GET("/conversations/:peer_id/messages", h.GetConversation)
			protected.POST("/conversations/:peer_id/messages", h.SendMessage)
		}
	}

	r.GET("/health", h.HealthCheck)
}

// EvaluateRoute runs the access gate for a navigation event.
func (h *HTTPHandler) EvaluateRoute(c *gin.Context) {
	route := c.Query("route")
	if route == "" {
		response.BadRequest(c, "route is required")
		return
	}

	// The bearer token identifies the client; evaluations of different
	// clients must not supersede each other.
	client, _ := identity.TokenFromContext(c.Request.Context())
	ev, err := h.gate.Evaluate(c.Request.Context(), client, route)
	if err != nil {
		if errors.Is(err, gate.ErrSuperseded) {
			// A newer navigation won; this decision must not be applied.
			response.Error(c, 409, "SUPERSEDED", "a newer navigation is in flight")
			return
		}
		response.InternalError(c, "failed to evaluate route")
		return
	}

	l := log.Ctx(c.Request.Context())
	l.Debug().Str(log.FieldRoute, route).Str(log.FieldDecision, ev.Decision).Msg("route evaluated")

	response.Success(c, ev)
}

// GetConversation returns the full transcript between the caller and a
// peer, ordered ascending by (created_at, id).
func (h *HTTPHandler) GetConversation(c *gin.Context) {
	session, ok := SessionFrom(c)
	if !ok {
		response.Unauthorized(c, "not signed in")
		return
	}

	peerID := domain.Identity(c.Param("peer_id"))
	if peerID.IsZero() {
		response.BadRequest(c, "peer_id is required")
		return
	}

	key := domain.NewConversationKey(session.Identity, peerID)
	messages, err := h.messages.ListConversation(c.Request.Context(), key)
	if err != nil {
		response.InternalError(c, "failed to load conversation")
		return
	}

	response.Success(c, transcriptView(messages, session.Identity))
}

type sendRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage appends a message from the caller to the peer. The
// transcript view updates when the write echoes through the live feed.
func (h *HTTPHandler) SendMessage(c *gin.Context) {
	session, ok := SessionFrom(c)
	if !ok {
		response.Unauthorized(c, "not signed in")
		return
	}

	peerID := domain.Identity(c.Param("peer_id"))
	if peerID.IsZero() {
		response.BadRequest(c, "peer_id is required")
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "body is required")
		return
	}

	msg, err := h.messages.Insert(c.Request.Context(), session.Identity, peerID, req.Body)
	if err != nil {
		h.recorder.Record(c.Request.Context(), audit.Entry{
			Action:  audit.ActionSendFailed,
			ActorID: string(session.Identity),
			Target:  string(peerID),
			At:      time.Now().UTC(),
		})
		response.InternalError(c, "failed to send message")
		return
	}

	h.recorder.Record(c.Request.Context(), audit.Entry{
		Action:  audit.ActionMessageSent,
		ActorID: string(session.Identity),
		Target:  string(peerID),
		Detail:  msg.ID,
		At:      time.Now().UTC(),
	})

	response.Created(c, messageView(*msg, session.Identity))
}

// HealthCheck reports liveness.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// MessageView is a message decorated with viewer-relative attribution.
type MessageView struct {
	domain.Message
	Mine bool `json:"mine"`
}

func messageView(m domain.Message, viewer domain.Identity) MessageView {
	return MessageView{Message: m, Mine: m.Mine(viewer)}
}

func transcriptView(messages []domain.Message, viewer domain.Identity) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m, viewer))
	}
	return views
}
