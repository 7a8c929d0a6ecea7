package application

import (
	"context"
	"time"
)

const (
	snowballSpeed    = 15
	turretShotSpeed  = 10
	snowballLifetime = 3 * time.Second
	maxLiveSnowballs = 100
	snowballTick     = 50 * time.Millisecond
	playerHitRadius  = 25
	grinchHitRadius  = 30
	grinchPushback   = 100
	turretRange      = 300
	respawnJitter    = 50
)

func (g *Game) throwSnowball(ctx context.Context, p *Player, target Vec2, now time.Time) {
	if p.Snowballs <= 0 || len(g.world.snowballs) >= maxLiveSnowballs {
		return
	}
	p.Snowballs--

	// A target on the thrower yields a snowball that never moves.
	vel := target.Sub(p.Pos()).Normalize().Scale(snowballSpeed)
	sb := &Snowball{
		ID:        g.world.nextSnowballID(false),
		X:         p.X,
		Y:         p.Y,
		VX:        vel.X,
		VY:        vel.Y,
		OwnerID:   p.ID,
		OwnerTeam: p.Team,
		CreatedAt: now.UnixMilli(),
	}
	g.world.snowballs[sb.ID] = sb

	g.broadcast(ctx, EvSnowballThrown, SnowballThrownEvent{Snowball: sb, ThrowerSnowballs: p.Snowballs})
}

func (g *Game) snowballTick(ctx context.Context, now time.Time) {
	for _, sb := range g.world.Snowballs() {
		g.advanceSnowball(ctx, sb, now)
	}
	g.fireTurrets(ctx, now)
}

// advanceSnowball moves sb one step and resolves at most one removal.
func (g *Game) advanceSnowball(ctx context.Context, sb *Snowball, now time.Time) {
	sb.X += sb.VX
	sb.Y += sb.VY
	pos := sb.Pos()

	if now.UnixMilli()-sb.CreatedAt > snowballLifetime.Milliseconds() {
		g.removeSnowball(ctx, sb, RemovedExpired)
		return
	}
	if !g.world.bounds.Contains(pos) {
		g.removeSnowball(ctx, sb, RemovedOutOfBounds)
		return
	}

	for _, o := range g.world.obstacles {
		if !o.Kind.Blocks() || o.ID == sb.SourceID {
			continue
		}
		if pos.Dist(o.Pos()) < o.Radius {
			delete(g.world.snowballs, sb.ID)
			g.broadcast(ctx, EvSnowballSplat, SnowballSplatEvent{SnowballID: sb.ID, X: sb.X, Y: sb.Y, ObstacleID: o.ID})
			return
		}
	}

	for _, p := range g.world.Players() {
		if p.ID == sb.OwnerID || (sb.OwnerTeam != "" && sb.OwnerTeam == p.Team) {
			continue
		}
		if pos.Dist(p.Pos()) < playerHitRadius {
			g.hitPlayer(ctx, sb, p, now)
			return
		}
	}

	for _, gr := range g.world.Grinches() {
		if pos.Dist(gr.Pos()) < grinchHitRadius {
			delete(g.world.snowballs, sb.ID)
			push := sb.Vel().Normalize().Scale(grinchPushback)
			gr.SetPos(g.world.bounds.Clamp(gr.Pos().Add(push)))
			g.broadcast(ctx, EvGrinchHit, GrinchHitEvent{GrinchID: gr.ID, SnowballID: sb.ID, X: gr.X, Y: gr.Y})
			g.broadcast(ctx, EvSnowballRemoved, SnowballRemovedEvent{SnowballID: sb.ID, Reason: RemovedGrinch})
			return
		}
	}
}

func (g *Game) removeSnowball(ctx context.Context, sb *Snowball, reason string) {
	delete(g.world.snowballs, sb.ID)
	g.broadcast(ctx, EvSnowballRemoved, SnowballRemovedEvent{SnowballID: sb.ID, Reason: reason})
}

func (g *Game) hitPlayer(ctx context.Context, sb *Snowball, p *Player, now time.Time) {
	if p.Has(PowerupShield, now) {
		g.removeSnowball(ctx, sb, RemovedBlocked)
		return
	}
	delete(g.world.snowballs, sb.ID)

	s := g.level.Settings
	p.Freeze(now.Add(s.FreezeDuration.Duration()))
	p.Hits++
	hits := p.Hits
	respawned := hits >= s.HitsToRespawn
	if respawned {
		g.world.relocate(p, g.respawnPoint(p))
		p.Hits = 0
		p.Snowballs = s.InitialSnowballs
		p.Respawns++
	}

	g.broadcast(ctx, EvSnowballHit, SnowballHitEvent{
		SnowballID:    sb.ID,
		HitPlayerID:   p.ID,
		ThrownBy:      sb.OwnerID,
		Hits:          hits,
		HitsToRespawn: s.HitsToRespawn,
		Respawned:     respawned,
		PlayerX:       p.X,
		PlayerY:       p.Y,
		FrozenUntil:   p.FrozenUntil,
	})
}

// respawnPoint is near the player's team spawn, or any safe spot for the unteamed.
func (g *Game) respawnPoint(p *Player) Vec2 {
	if t, ok := g.world.teams[p.Team]; ok && t.Spawn != nil {
		return g.world.spawnNear(g.rng, *t.Spawn, respawnJitter)
	}
	return g.world.SafePosition(g.rng)
}

func (g *Game) scheduleTurret(o *Obstacle, now time.Time) {
	interval := o.fireMin
	if spread := o.fireMax - o.fireMin; spread > 0 {
		interval += time.Duration(g.rng.Int64N(int64(spread) + 1))
	}
	o.nextFire = now.Add(interval)
}

func (g *Game) fireTurrets(ctx context.Context, now time.Time) {
	for _, o := range g.world.obstacles {
		if o.Kind != ObstacleTurret {
			continue
		}
		if o.nextFire.IsZero() {
			g.scheduleTurret(o, now)
			continue
		}
		if now.Before(o.nextFire) {
			continue
		}
		g.scheduleTurret(o, now)
		o.LastFired = now.UnixMilli()

		target := g.nearestPlayer(o.Pos(), turretRange, false, now)
		if target == nil || len(g.world.snowballs) >= maxLiveSnowballs {
			continue
		}
		vel := target.Pos().Sub(o.Pos()).Normalize().Scale(turretShotSpeed)
		sb := &Snowball{
			ID:         g.world.nextSnowballID(true),
			X:          o.X,
			Y:          o.Y,
			VX:         vel.X,
			VY:         vel.Y,
			OwnerID:    turretOwner,
			CreatedAt:  now.UnixMilli(),
			FromTurret: true,
			SourceID:   o.ID,
		}
		g.world.snowballs[sb.ID] = sb
		g.broadcast(ctx, EvTurretShot, TurretShotEvent{TurretID: o.ID, Snowball: sb})
	}
}

// nearestPlayer returns the closest player strictly within maxDist, ties
// going to the lowest ID. Invisible players are skipped when asked.
func (g *Game) nearestPlayer(from Vec2, maxDist float64, skipInvisible bool, now time.Time) *Player {
	var best *Player
	bestDist := maxDist
	for _, p := range g.world.Players() {
		if skipInvisible && p.Has(PowerupInvisible, now) {
			continue
		}
		if d := from.Dist(p.Pos()); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
