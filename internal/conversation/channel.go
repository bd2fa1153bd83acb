package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/pubsub"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

var (
	// ErrClosed is returned by operations on a closed channel.
	ErrClosed = errors.New("conversation channel closed")
	// ErrBackfill marks a failed historical load. The channel is still
	// open and live; Refresh retries the backfill.
	ErrBackfill = errors.New("backfill failed")
)

// Channel is a live view over one two-party conversation. It merges a
// one-shot backfill with the broad push feed into a single deduplicated,
// ordered transcript, and exposes the send path. Either participant may
// appear in the sender column; attribution is always senderId == selfId.
type Channel struct {
	self domain.Identity
	peer domain.Identity
	key  domain.ConversationKey

	store repository.MessageStore

	mu         sync.Mutex
	transcript *Transcript
	closed     bool
	onChange   func([]domain.Message)

	sub       pubsub.Subscription
	cancel    context.CancelFunc
	closeOnce sync.Once

	backfillTimeout time.Duration
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithOnTranscriptChanged sets the callback fired after every
// successful merge, with a snapshot of the full ordered transcript.
func WithOnTranscriptChanged(fn func([]domain.Message)) ChannelOption {
	return func(c *Channel) { c.onChange = fn }
}

// WithBackfillTimeout bounds the historical load.
func WithBackfillTimeout(d time.Duration) ChannelOption {
	return func(c *Channel) { c.backfillTimeout = d }
}

// Open creates the channel for the (self, peer) pair: it subscribes to
// the push feed, then seeds the transcript from the store. The overlap
// window between the two is resolved by id dedup.
//
// A backfill failure is recoverable: Open still returns the live channel
// together with an error wrapping ErrBackfill, and Refresh can retry.
// Any other error means the channel could not be opened.
func Open(ctx context.Context, self, peer domain.Identity, store repository.MessageStore, bus pubsub.Subscriber, opts ...ChannelOption) (*Channel, error) {
	c := &Channel{
		self:            self,
		peer:            peer,
		key:             domain.NewConversationKey(self, peer),
		store:           store,
		transcript:      NewTranscript(),
		backfillTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := bus.Subscribe(subCtx, pubsub.ChannelMessages)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open push subscription: %w", err)
	}
	c.sub = sub
	c.cancel = cancel

	go c.consume(subCtx, sub.Events())

	if err := c.Refresh(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// Refresh (re-)runs the backfill and merges it into the transcript.
// Already-seen ids are dropped, so calling it at any time cannot
// duplicate or reorder messages.
func (c *Channel) Refresh(ctx context.Context) error {
	if c.backfillTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.backfillTimeout)
		defer cancel()
	}

	history, err := c.store.ListConversation(ctx, c.key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackfill, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	merged := false
	for _, msg := range history {
		if c.transcript.Insert(msg) {
			merged = true
		}
	}
	var snapshot []domain.Message
	if merged && c.onChange != nil {
		snapshot = c.transcript.Messages()
	}
	c.mu.Unlock()

	if snapshot != nil {
		c.onChange(snapshot)
	}
	return nil
}

// Send writes a new message from self to peer. The transcript is not
// touched here: the authoritative update arrives through the push feed.
// On failure the error is returned and nothing changes, so the caller
// can keep the input and retry.
func (c *Channel) Send(ctx context.Context, body string) (*domain.Message, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	msg, err := c.store.Insert(ctx, c.self, c.peer, body)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// Transcript returns a snapshot of the current ordered transcript.
func (c *Channel) Transcript() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

// Close tears down the push subscription exactly once. Further Close
// calls are no-ops, and events still in flight are dropped.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.cancel()
		c.sub.Close()
	})
}

func (c *Channel) consume(ctx context.Context, events <-chan *pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

// handleEvent applies one push event: membership filter, validation,
// id dedup, ordered insert. Foreign and malformed events are dropped
// silently; they must never crash the merge loop or leak into the
// transcript.
func (c *Channel) handleEvent(ctx context.Context, ev *pubsub.Event) {
	if ev.Type != pubsub.EventMessageCreated {
		return
	}

	var payload pubsub.MessagePayload
	if err := ev.UnmarshalPayload(&payload); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("dropping undecodable message event")
		return
	}
	if !payload.Valid() {
		return
	}

	msg := payload.Message()
	if !c.key.Matches(msg.SenderID, msg.RecipientID) {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	inserted := c.transcript.Insert(msg)
	var snapshot []domain.Message
	if inserted && c.onChange != nil {
		snapshot = c.transcript.Messages()
	}
	c.mu.Unlock()

	if snapshot != nil {
		c.onChange(snapshot)
	}
}
