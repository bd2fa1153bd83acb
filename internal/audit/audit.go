package audit

import (
	"context"
	"time"

	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// Audit actions emitted by the console core.
const (
	ActionSessionEvicted   = "gate.session_evicted"
	ActionRoleLookupFailed = "gate.role_lookup_failed"
	ActionAccessDenied     = "gate.access_denied"
	ActionMessageSent      = "chat.message_sent"
	ActionSendFailed       = "chat.send_failed"
)

// Entry is a single audit record.
type Entry struct {
	Action  string    `json:"action"`
	ActorID string    `json:"actor_id,omitempty"`
	Target  string    `json:"target,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Recorder receives audit entries. Recording must never fail the
// operation being audited.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// LogRecorder emits audit entries as structured zerolog events.
type LogRecorder struct{}

// NewLogRecorder creates a zerolog-backed recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Record emits the entry via the context logger.
func (LogRecorder) Record(ctx context.Context, e Entry) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str("action", e.Action)
	if e.ActorID != "" {
		evt = evt.Str(log.FieldUserID, e.ActorID)
	}
	if e.Target != "" {
		evt = evt.Str("target", e.Target)
	}
	if e.Detail != "" {
		evt = evt.Str("detail", e.Detail)
	}
	evt.Msg("audit")
}

// Fanout sends each entry to every recorder.
type Fanout []Recorder

// Record forwards to all recorders.
func (f Fanout) Record(ctx context.Context, e Entry) {
	for _, r := range f {
		r.Record(ctx, e)
	}
}

// Nop discards entries. Used where auditing is optional.
type Nop struct{}

// Record discards the entry.
func (Nop) Record(context.Context, Entry) {}
