// Package detect turns two consecutive repository snapshots into effect events.
//
// The rules are heuristics over counters and the HEAD commit. A branch switch
// that brings ahead/behind to zero is reported as a push or pull; there is no
// way to tell them apart from snapshots alone.
package detect

import (
	"fmt"

	"github.com/jackchuka/gitfx/internal/model"
)

// Flags enables individual rules.
type Flags struct {
	Push   bool
	Pull   bool
	Commit bool
}

// AllFlags enables every rule.
func AllFlags() Flags {
	return Flags{Push: true, Pull: true, Commit: true}
}

// Detect compares prev and cur. Rules are independent and results are
// ordered push, pull, commit.
func Detect(prev, cur model.RepoSnap, flags Flags) []model.EffectEvent {
	var events []model.EffectEvent

	if flags.Push && prev.Ahead > 0 && cur.Ahead == 0 {
		events = append(events, model.EventPush)
	}
	if flags.Pull && prev.Behind > 0 && cur.Behind == 0 {
		events = append(events, model.EventPull)
	}
	if flags.Commit && committed(prev, cur) {
		events = append(events, model.EventCommit)
	}

	return events
}

func committed(prev, cur model.RepoSnap) bool {
	return cur.Commit != "" && prev.Commit != "" &&
		cur.Commit != prev.Commit &&
		prev.Dirty && !cur.Dirty
}

// Payload labels a detected event for presentation.
func Payload(event model.EffectEvent, key string, head model.HeadInfo, prev, cur model.RepoSnap) model.EffectPayload {
	p := model.EffectPayload{
		Kind:     model.KindSuccess,
		Event:    event,
		RepoPath: key,
		Branch:   head.Branch,
		Upstream: head.Upstream,
	}

	branch, upstream := model.OrUnknown(head.Branch), model.OrUnknown(head.Upstream)
	switch event {
	case model.EventPush:
		p.Title = "Push succeeded"
		p.Detail = fmt.Sprintf("%s → %s", branch, upstream)
	case model.EventPull:
		p.Title = "Pull succeeded"
		p.Detail = fmt.Sprintf("%s ← %s", branch, upstream)
	case model.EventCommit:
		p.Title = "Commit completed"
		p.Detail = fmt.Sprintf("HEAD updated (%s → %s)", prev.ShortCommit(), cur.ShortCommit())
	default:
		p.Kind = model.KindInfo
		p.Title = string(event)
	}
	return p
}
