package handler

// WebSocket frame types from client.
const (
	frameSend = "send"
	framePing = "ping"
)

// WebSocket frame types to client.
const (
	frameTranscript = "transcript"
	frameSendFailed = "send_failed"
	frameError      = "error"
	framePong       = "pong"
)

// Error codes
const (
	errCodeBadRequest = "BAD_REQUEST"
)

type baseFrame struct {
	Type string `json:"type"`
}

// Client -> Server frames

type sendFrame struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

// Server -> Client frames

type transcriptFrame struct {
	Type     string        `json:"type"`
	Messages []MessageView `json:"messages"`
}

type sendFailedFrame struct {
	Type string `json:"type"`
	// Body echoes the rejected input so the client can keep it for retry.
	Body    string `json:"body"`
	Message string `json:"message"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
