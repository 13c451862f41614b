// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feedback emits short tactile cues after user-visible outcomes.
// Cues are a side channel: emitting one never fails and never changes
// control flow.
package feedback

import (
	"io"
	"sync"

	"github.com/pdiddy/parchment/pkg/types"
)

// Cue is the kind of feedback to emit.
type Cue string

const (
	Light     Cue = "light"
	Medium    Cue = "medium"
	Selection Cue = "selection"
	Success   Cue = "success"
	Error     Cue = "error"
)

// Notifier emits cues.
type Notifier interface {
	Notify(c Cue)
}

// Nop drops every cue.
type Nop struct{}

func (Nop) Notify(Cue) {}

// New returns the notifier for platform. Only native platforms emit cues;
// on a terminal the notification cues ring the bell on w.
func New(platform types.Platform, w io.Writer) Notifier {
	if platform != types.PlatformNative || w == nil {
		return Nop{}
	}
	return &Bell{w: w}
}

// Bell rings the terminal bell for success and error notifications.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func (b *Bell) Notify(c Cue) {
	if c != Success && c != Error {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w.Write([]byte("\a"))
}

// Recorder keeps every cue it receives.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

func (r *Recorder) Notify(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

// Cues returns a copy of the recorded cues in order.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

// Last returns the most recent cue, or "" if none.
func (r *Recorder) Last() Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cues) == 0 {
		return ""
	}
	return r.cues[len(r.cues)-1]
}
