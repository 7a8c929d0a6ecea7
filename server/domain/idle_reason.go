package domain

import "fmt"

// IdleReason is a bit set of the activity channels that went quiet.
type IdleReason uint8

const (
	IdleNone     IdleReason = 0
	IdleRead     IdleReason = 1 << 0
	IdleWrite    IdleReason = 1 << 1
	IdlePong     IdleReason = 1 << 2
	IdleClosed   IdleReason = 1 << 6 // closed by peer or server, not by inactivity
	IdleDisabled IdleReason = 1 << 7 // timeout<=0
)

func (r IdleReason) Has(x IdleReason) bool { return r&x != 0 }

func (r IdleReason) String() string {
	switch r {
	case IdleNone:
		return "none"
	case IdleDisabled:
		return "disabled"
	case IdleClosed:
		return "closed"
	}
	out := ""
	add := func(s string) {
		if out == "" {
			out = s
			return
		}
		out += "|" + s
	}
	if r.Has(IdleRead) {
		add("read")
	}
	if r.Has(IdleWrite) {
		add("write")
	}
	if r.Has(IdlePong) {
		add("pong")
	}
	if out == "" {
		return fmt.Sprintf("unknown(%d)", r)
	}
	return out
}
