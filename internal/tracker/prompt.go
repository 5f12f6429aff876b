package tracker

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PromptKind identifies which question a completion prompt asks.
type PromptKind int

// Prompt kinds.
const (
	// PromptBatch asks whether all of today's tasks were completed.
	PromptBatch PromptKind = iota
	// PromptTask asks about a single task.
	PromptTask
	// PromptDone closes a per-task review and advances the day.
	PromptDone
)

func (k PromptKind) String() string {
	switch k {
	case PromptBatch:
		return "batch"
	case PromptTask:
		return "task"
	case PromptDone:
		return "done"
	default:
		return "unknown"
	}
}

// Accepts reports whether answer is one of the buttons the kind offers.
func (k PromptKind) Accepts(answer string) bool {
	switch k {
	case PromptBatch, PromptTask:
		return answer == AnswerYes || answer == AnswerNo
	case PromptDone:
		return answer == AnswerDone
	default:
		return false
	}
}

// Answers carried by prompt buttons.
const (
	AnswerYes  = "yes"
	AnswerNo   = "no"
	AnswerDone = "done"
)

// actionPrefix namespaces button payloads owned by the tracker.
const actionPrefix = "tt:"

// Prompt is the view state behind one set of completion buttons.
type Prompt struct {
	ID        string
	Kind      PromptKind
	ChannelID string
	TaskIDs   []int
	ExpiresAt time.Time
}

// Prompts is the registry of open prompts keyed by prompt id. A prompt is
// removed as soon as it is answered.
type Prompts struct {
	mu    sync.Mutex
	items map[string]*Prompt
	now   func() time.Time
}

// NewPrompts returns an empty registry using now as its clock.
func NewPrompts(now func() time.Time) *Prompts {
	if now == nil {
		now = time.Now
	}
	return &Prompts{items: make(map[string]*Prompt), now: now}
}

// Open registers a new prompt that stays answerable for ttl.
func (p *Prompts) Open(kind PromptKind, channelID string, taskIDs []int, ttl time.Duration) *Prompt {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for id, pr := range p.items {
		if !now.Before(pr.ExpiresAt) {
			delete(p.items, id)
		}
	}

	pr := &Prompt{
		ID:        uuid.NewString(),
		Kind:      kind,
		ChannelID: channelID,
		TaskIDs:   slices.Clone(taskIDs),
		ExpiresAt: now.Add(ttl),
	}
	p.items[pr.ID] = pr
	return pr
}

// Claim removes and returns the prompt answered with answer. Unknown and
// expired prompts yield ErrPromptExpired. An answer the prompt does not offer
// yields ErrUnexpectedAnswer and leaves the prompt open.
func (p *Prompts) Claim(id, answer string) (*Prompt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.items[id]
	if !ok {
		return nil, ErrPromptExpired
	}
	if !p.now().Before(pr.ExpiresAt) {
		delete(p.items, id)
		return nil, ErrPromptExpired
	}
	if !pr.Kind.Accepts(answer) {
		return nil, ErrUnexpectedAnswer
	}
	delete(p.items, id)
	return pr, nil
}

// DropChannel removes every open prompt of the channel.
func (p *Prompts) DropChannel(channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pr := range p.items {
		if pr.ChannelID == channelID {
			delete(p.items, id)
		}
	}
}

// Len returns the number of registered prompts, expired ones included.
func (p *Prompts) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// EncodeAction builds the button payload for answering a prompt.
func EncodeAction(promptID, answer string) string {
	return actionPrefix + promptID + ":" + answer
}

// DecodeAction splits a button payload built by EncodeAction.
func DecodeAction(data string) (promptID, answer string, ok bool) {
	rest, found := strings.CutPrefix(data, actionPrefix)
	if !found {
		return "", "", false
	}
	promptID, answer, ok = strings.Cut(rest, ":")
	if !ok || promptID == "" || answer == "" {
		return "", "", false
	}
	return promptID, answer, true
}

// IsAction reports whether data is a tracker button payload.
func IsAction(data string) bool {
	return strings.HasPrefix(data, actionPrefix)
}
