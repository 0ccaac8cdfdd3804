package model

type EffectKind string

const (
	KindSuccess EffectKind = "success"
	KindError   EffectKind = "error"
	KindInfo    EffectKind = "info"
)

type EffectEvent string

const (
	EventPush   EffectEvent = "push"
	EventPull   EffectEvent = "pull"
	EventCommit EffectEvent = "commit"
	EventManual EffectEvent = "manual"
)

// OrUnknown renders a missing branch or upstream name as "?".
func OrUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// EffectPayload is what a presentation sink receives for one accepted effect.
type EffectPayload struct {
	Kind     EffectKind
	Event    EffectEvent
	RepoPath string
	Branch   string // optional
	Upstream string // optional
	Title    string
	Detail   string // optional
}
