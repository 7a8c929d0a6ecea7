package store

import (
	"context"
	"errors"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

var ErrNoSnapshot = errors.New("no snapshot")

// Store persists the slice of room state that survives a restart.
type Store interface {
	Load(ctx context.Context, room string) (Snapshot, error)
	Save(ctx context.Context, room string, snap Snapshot) error
}

type Point struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

type Gift struct {
	ID        string  `msgpack:"id"`
	X         float64 `msgpack:"x"`
	Y         float64 `msgpack:"y"`
	Rarity    uint8   `msgpack:"rarity"`
	SpawnedAt int64   `msgpack:"spawnedAt"`
}

// Team is stored without members; players never outlive the process.
type Team struct {
	ID      string `msgpack:"id"`
	Name    string `msgpack:"name"`
	Color   string `msgpack:"color"`
	Score   int    `msgpack:"score"`
	Wins    int    `msgpack:"wins"`
	Creator string `msgpack:"creator,omitempty"`
	Spawn   *Point `msgpack:"spawn,omitempty"`
	Tree    *Point `msgpack:"tree,omitempty"`
}

type Snapshot struct {
	Gifts   []Gift `msgpack:"gifts"`
	Teams   []Team `msgpack:"teams"`
	GiftSeq uint64 `msgpack:"giftSeq"`
}

// Clone returns a deep copy so callers can keep mutating their own.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Gifts:   append([]Gift(nil), s.Gifts...),
		Teams:   make([]Team, len(s.Teams)),
		GiftSeq: s.GiftSeq,
	}
	for i, t := range s.Teams {
		if t.Spawn != nil {
			p := *t.Spawn
			t.Spawn = &p
		}
		if t.Tree != nil {
			p := *t.Tree
			t.Tree = &p
		}
		out.Teams[i] = t
	}
	return out
}
