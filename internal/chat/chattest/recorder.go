// Package chattest provides an in-memory chat.Gateway for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Sent is one message recorded by a Recorder. Exactly one of Text or Card is set.
type Sent struct {
	ChannelID string
	Text      string
	Card      *chat.Card
}

// Recorder records every message sent through it.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	// Err, when set, is returned from every send after recording it.
	Err error
}

// SendCard implements chat.Gateway.
func (r *Recorder) SendCard(_ context.Context, channelID string, card chat.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := card
	r.sent = append(r.sent, Sent{ChannelID: channelID, Card: &c})
	return r.Err
}

// SendText implements chat.Gateway.
func (r *Recorder) SendText(_ context.Context, channelID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{ChannelID: channelID, Text: text})
	return r.Err
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Cards returns only the recorded cards, in order.
func (r *Recorder) Cards() []chat.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Card
	for _, s := range r.sent {
		if s.Card != nil {
			out = append(out, *s.Card)
		}
	}
	return out
}

// Texts returns only the recorded plain texts, in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.Card == nil {
			out = append(out, s.Text)
		}
	}
	return out
}

// Last returns the most recent message, or the zero value if nothing was sent.
func (r *Recorder) Last() Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}
	}
	return r.sent[len(r.sent)-1]
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
