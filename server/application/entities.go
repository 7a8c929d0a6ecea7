package application

import (
	"fmt"
	"time"
)

const playerRadius = 20

// ObstacleKind is the runtime kind of a static obstacle or terrain zone.
type ObstacleKind uint8

const (
	ObstacleSolid ObstacleKind = iota + 1
	ObstacleTurret
	ObstacleIce
	ObstacleSnowdrift
	ObstacleDanger
)

func (k ObstacleKind) String() string {
	switch k {
	case ObstacleSolid:
		return "solid"
	case ObstacleTurret:
		return "turret"
	case ObstacleIce:
		return "ice"
	case ObstacleSnowdrift:
		return "snowdrift"
	case ObstacleDanger:
		return "danger"
	}
	return "unknown"
}

func (k ObstacleKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ObstacleKind) UnmarshalText(b []byte) error {
	for kind := ObstacleSolid; kind <= ObstacleDanger; kind++ {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown obstacle kind %q", b)
}

// Blocks reports whether players, grinches and snowballs collide with it.
func (k ObstacleKind) Blocks() bool { return k == ObstacleSolid || k == ObstacleTurret }

type Obstacle struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Kind      ObstacleKind `json:"kind"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Radius    float64      `json:"radius"`
	Emoji     string       `json:"emoji,omitempty"`
	Solid     bool         `json:"solid"`
	LastFired int64        `json:"lastFired,omitempty"`

	fireMin     time.Duration
	fireMax     time.Duration
	nextFire    time.Time
	slowFactor  float64
	dangerSteps int
}

func (o *Obstacle) Pos() Vec2 { return Vec2{o.X, o.Y} }

// Player is the avatar bound to one joined session. Timestamps are unix milliseconds.
type Player struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Color          string                `json:"color"`
	X              float64               `json:"x"`
	Y              float64               `json:"y"`
	VX             float64               `json:"vx"`
	VY             float64               `json:"vy"`
	Score          int                   `json:"score"`
	GiftsCollected int                   `json:"giftsCollected"`
	RoundGifts     int                   `json:"roundGifts"`
	Level          int                   `json:"level"`
	Team           string                `json:"team"`
	Powerups       map[PowerupKind]int64 `json:"powerups"`
	Snowballs      int                   `json:"snowballs"`
	Frozen         bool                  `json:"frozen"`
	FrozenUntil    int64                 `json:"frozenUntil"`
	OnIce          bool                  `json:"onIce"`
	InSnowdrift    bool                  `json:"inSnowdrift"`
	OnDangerIce    bool                  `json:"onDangerIce"`
	Hits           int                   `json:"hits"`
	Captures       int                   `json:"captures"`
	Respawns       int                   `json:"respawns"`
	LastEmote      int64                 `json:"lastEmote"`
	LastUpdate     int64                 `json:"lastUpdate"`

	dangerSteps int
	slowFactor  float64
}

func (p *Player) Pos() Vec2 { return Vec2{p.X, p.Y} }

func (p *Player) SetPos(v Vec2) { p.X, p.Y = v.X, v.Y }

// Has reports whether a timed powerup is still running at now.
func (p *Player) Has(kind PowerupKind, now time.Time) bool {
	return now.UnixMilli() < p.Powerups[kind]
}

// IsFrozen clears an expired freeze as a side effect.
func (p *Player) IsFrozen(now time.Time) bool {
	if !p.Frozen {
		return false
	}
	if now.UnixMilli() >= p.FrozenUntil {
		p.Frozen = false
		p.FrozenUntil = 0
		return false
	}
	return true
}

func (p *Player) Freeze(until time.Time) {
	p.Frozen = true
	p.FrozenUntil = until.UnixMilli()
}

type Gift struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Rarity    Rarity  `json:"rarity"`
	Color     string  `json:"color"`
	Points    int     `json:"points"`
	Emoji     string  `json:"emoji"`
	SpawnedAt int64   `json:"spawnedAt"`
}

func (g *Gift) Pos() Vec2 { return Vec2{g.X, g.Y} }

type Powerup struct {
	ID        string      `json:"id"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Type      PowerupKind `json:"type"`
	Emoji     string      `json:"emoji"`
	Color     string      `json:"color"`
	SpawnedAt int64       `json:"spawnedAt"`
}

func (p *Powerup) Pos() Vec2 { return Vec2{p.X, p.Y} }

type Grinch struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Target string  `json:"target,omitempty"`
	Speed  float64 `json:"speed"`
	Steals int     `json:"steals"`
}

func (g *Grinch) Pos() Vec2 { return Vec2{g.X, g.Y} }

func (g *Grinch) SetPos(v Vec2) { g.X, g.Y = v.X, v.Y }

// turretOwner is the owner ID of snowballs fired by turrets.
const turretOwner = "turret"

type Snowball struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	OwnerID    string  `json:"ownerId"`
	OwnerTeam  string  `json:"ownerTeam,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
	FromTurret bool    `json:"fromTurret,omitempty"`
	SourceID   string  `json:"sourceId,omitempty"`
}

func (s *Snowball) Pos() Vec2 { return Vec2{s.X, s.Y} }

func (s *Snowball) Vel() Vec2 { return Vec2{s.VX, s.VY} }

type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Color      string   `json:"color"`
	Score      int      `json:"score"`
	Wins       int      `json:"wins"`
	Members    []string `json:"members"`
	Spawn      *Vec2    `json:"spawn,omitempty"`
	Tree       *Vec2    `json:"tree,omitempty"`
	RoundGifts int      `json:"roundGifts"`
	Creator    string   `json:"creator,omitempty"`
}

func (t *Team) addMember(id string) {
	for _, m := range t.Members {
		if m == id {
			return
		}
	}
	t.Members = append(t.Members, id)
}

func (t *Team) removeMember(id string) {
	for i, m := range t.Members {
		if m == id {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return
		}
	}
}

// ChatMessage is one line of room chat. Type is "player" or "system".
type ChatMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	PlayerID  string `json:"playerId,omitempty"`
	Name      string `json:"name,omitempty"`
	Color     string `json:"color,omitempty"`
	Team      string `json:"team,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
