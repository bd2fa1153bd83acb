package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JLSed/ShoeFreak-Admin/internal/config"
	"github.com/JLSed/ShoeFreak-Admin/internal/conversation"
	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/pubsub"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
	"github.com/JLSed/ShoeFreak-Admin/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler serves the live conversation endpoint. Each accepted socket
// opens its own ConversationChannel; the shared bus fans events out to
// every open channel and each one filters for its own pair.
type WSHandler struct {
	store repository.MessageStore
	bus   pubsub.Subscriber
	wsCfg config.WebSocketConfig
	msgs  config.MessagesConfig
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(store repository.MessageStore, bus pubsub.Subscriber, wsCfg config.WebSocketConfig, msgs config.MessagesConfig) *WSHandler {
	return &WSHandler{
		store: store,
		bus:   bus,
		wsCfg: wsCfg,
		msgs:  msgs,
	}
}

// RegisterRoutes mounts the conversation socket behind the session
// middleware.
func (h *WSHandler) RegisterRoutes(r *gin.Engine, m *SessionMiddleware) {
	r.GET("/ws/conversations/:peer_id", m.RequireSession(), h.HandleConversation)
}

// HandleConversation upgrades the connection and binds it to a live
// conversation channel with the peer.
func (h *WSHandler) HandleConversation(c *gin.Context) {
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

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newWSClient(uuid.New().String(), conn, h.wsCfg)
	self := session.Identity

	// The request context dies with the handler; the channel lives for
	// the socket's lifetime and is torn down by the read pump.
	channel, err := conversation.Open(
		context.Background(),
		self, peerID,
		h.store, h.bus,
		conversation.WithBackfillTimeout(h.msgs.BackfillTimeout),
		conversation.WithOnTranscriptChanged(func(messages []domain.Message) {
			client.enqueue(transcriptFrame{
				Type:     frameTranscript,
				Messages: transcriptView(messages, self),
			})
		}),
	)
	if err != nil && !errors.Is(err, conversation.ErrBackfill) {
		conn.Close()
		return
	}
	if err != nil {
		// Backfill failed but the channel is live; tell the client the
		// history is missing and keep going.
		client.enqueue(errorFrame{Type: frameError, Code: "BACKFILL_FAILED", Message: "failed to load history"})
	} else {
		// Initial snapshot; an empty transcript is a valid one.
		client.enqueue(transcriptFrame{
			Type:     frameTranscript,
			Messages: transcriptView(channel.Transcript(), self),
		})
	}

	go client.writePump()
	go client.readPump(
		func(message []byte) { h.handleFrame(client, channel, message) },
		func() {
			channel.Close()
			client.closeSend()
		},
	)
}

func (h *WSHandler) handleFrame(client *wsClient, channel *conversation.Channel, message []byte) {
	var base baseFrame
	if err := json.Unmarshal(message, &base); err != nil {
		client.enqueue(errorFrame{Type: frameError, Code: errCodeBadRequest, Message: "invalid frame"})
		return
	}

	switch base.Type {
	case frameSend:
		var frame sendFrame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Body == "" {
			client.enqueue(errorFrame{Type: frameError, Code: errCodeBadRequest, Message: "invalid send frame"})
			return
		}
		// No optimistic append: the message shows up when the store
		// echoes it through the live feed.
		if _, err := channel.Send(context.Background(), frame.Body); err != nil {
			client.enqueue(sendFailedFrame{Type: frameSendFailed, Body: frame.Body, Message: "failed to send message"})
		}

	case framePing:
		client.enqueue(map[string]string{"type": framePong})

	default:
		client.enqueue(errorFrame{Type: frameError, Code: errCodeBadRequest, Message: "unknown frame type"})
	}
}
