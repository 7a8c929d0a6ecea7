package application

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

const (
	safeAttempts  = 50
	safeMargin    = 100
	safeClearance = 50
)

// World holds the entity stores of one room. It is owned by the room
// goroutine and is never shared.
type World struct {
	bounds    Bounds
	obstacles []*Obstacle

	players   map[string]*Player
	gifts     map[string]*Gift
	powerups  map[string]*Powerup
	grinches  map[string]*Grinch
	snowballs map[string]*Snowball
	teams     map[string]*Team

	giftSeq     uint64
	powerupSeq  uint64
	grinchSeq   uint64
	snowballSeq uint64
}

func NewWorld(level *Level) *World {
	w := &World{
		bounds:    level.World,
		obstacles: level.Obstacles(),
		players:   make(map[string]*Player),
		gifts:     make(map[string]*Gift),
		powerups:  make(map[string]*Powerup),
		grinches:  make(map[string]*Grinch),
		snowballs: make(map[string]*Snowball),
		teams:     make(map[string]*Team, len(level.Teams)),
	}
	for _, tc := range level.Teams {
		spawn, tree := tc.Spawn, tc.Tree
		w.teams[tc.ID] = &Team{
			ID:      tc.ID,
			Name:    tc.Name,
			Color:   tc.Color,
			Members: []string{},
			Spawn:   &spawn,
			Tree:    &tree,
		}
	}
	return w
}

func (w *World) nextGiftID() string {
	w.giftSeq++
	return fmt.Sprintf("gift_%d", w.giftSeq)
}

func (w *World) nextPowerupID() string {
	w.powerupSeq++
	return fmt.Sprintf("pu_%d", w.powerupSeq)
}

func (w *World) nextGrinchID() string {
	w.grinchSeq++
	return fmt.Sprintf("grinch_%d", w.grinchSeq)
}

// Player and turret snowballs share one counter.
func (w *World) nextSnowballID(fromTurret bool) string {
	w.snowballSeq++
	if fromTurret {
		return fmt.Sprintf("tsb_%d", w.snowballSeq)
	}
	return fmt.Sprintf("sb_%d", w.snowballSeq)
}

// sortedValues returns the values of m in ascending key order.
func sortedValues[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

func (w *World) Players() []*Player { return sortedValues(w.players) }

func (w *World) Gifts() []*Gift { return sortedValues(w.gifts) }

func (w *World) Powerups() []*Powerup { return sortedValues(w.powerups) }

func (w *World) Grinches() []*Grinch { return sortedValues(w.grinches) }

func (w *World) Snowballs() []*Snowball { return sortedValues(w.snowballs) }

func (w *World) Teams() []*Team { return sortedValues(w.teams) }

func (w *World) Obstacles() []*Obstacle { return w.obstacles }

func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

func (w *World) Team(id string) (*Team, bool) {
	t, ok := w.teams[id]
	return t, ok
}

// takeGift removes and returns the gift. A second call for the same ID misses.
func (w *World) takeGift(id string) (*Gift, bool) {
	g, ok := w.gifts[id]
	if ok {
		delete(w.gifts, id)
	}
	return g, ok
}

func (w *World) takePowerup(id string) (*Powerup, bool) {
	p, ok := w.powerups[id]
	if ok {
		delete(w.powerups, id)
	}
	return p, ok
}

// setTeam moves a player between teams, keeping member lists in sync.
func (w *World) setTeam(p *Player, teamID string) {
	if p.Team == teamID {
		return
	}
	if old, ok := w.teams[p.Team]; ok {
		old.removeMember(p.ID)
	}
	p.Team = teamID
	if t, ok := w.teams[teamID]; ok {
		t.addMember(p.ID)
	}
}

func (w *World) removePlayer(id string) (*Player, bool) {
	p, ok := w.players[id]
	if !ok {
		return nil, false
	}
	if t, ok := w.teams[p.Team]; ok {
		t.removeMember(id)
	}
	delete(w.players, id)
	return p, true
}

func (w *World) teammates(a, b *Player) bool {
	return a.Team != "" && a.Team == b.Team
}

// SafePosition picks a random point clear of every obstacle, falling back
// to the world center.
func (w *World) SafePosition(rng *rand.Rand) Vec2 {
	for range safeAttempts {
		p := Vec2{
			X: safeMargin + rng.Float64()*(w.bounds.Width-2*safeMargin),
			Y: safeMargin + rng.Float64()*(w.bounds.Height-2*safeMargin),
		}
		if w.clearOfObstacles(p) {
			return w.bounds.Clamp(p)
		}
	}
	return w.bounds.Center()
}

func (w *World) clearOfObstacles(p Vec2) bool {
	for _, o := range w.obstacles {
		if p.Dist(o.Pos()) < o.Radius+safeClearance {
			return false
		}
	}
	return true
}

// spawnNear returns a point within ±jitter of center, clamped to the world.
func (w *World) spawnNear(rng *rand.Rand, center Vec2, jitter float64) Vec2 {
	return w.bounds.Clamp(Vec2{
		X: center.X + (rng.Float64()*2-1)*jitter,
		Y: center.Y + (rng.Float64()*2-1)*jitter,
	})
}

// blockingObstacle returns the first solid obstacle closer than its radius plus pad.
func (w *World) blockingObstacle(p Vec2, pad float64) (*Obstacle, bool) {
	for _, o := range w.obstacles {
		if !o.Kind.Blocks() {
			continue
		}
		if p.Dist(o.Pos()) < o.Radius+pad {
			return o, true
		}
	}
	return nil, false
}

// resolveSolid pushes p out of the first blocking obstacle it overlaps.
// Only one obstacle is resolved per call.
func (w *World) resolveSolid(p Vec2, pad float64) Vec2 {
	o, ok := w.blockingObstacle(p, pad)
	if !ok {
		return p
	}
	return w.bounds.Clamp(pushOut(p, o.Pos(), o.Radius+pad+2))
}
