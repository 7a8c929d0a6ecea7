package application

import (
	"context"
	"fmt"
	"time"
)

const (
	iceFriction      = 0.95
	iceAcceleration  = 0.1
	defaultSlow      = 0.5
	magnetRange      = 150
	magnetStep       = 3
	fallPenaltyRatio = 10 // a fall costs score/fallPenaltyRatio
)

// applyTerrain recomputes the terrain flags of p from its position and
// returns the danger threshold of the zone it stands in, if any.
func (w *World) applyTerrain(p *Player) int {
	p.OnIce, p.InSnowdrift, p.OnDangerIce = false, false, false
	p.slowFactor = 1
	limit := 0
	pos := p.Pos()
	for _, o := range w.obstacles {
		if o.Kind.Blocks() || pos.Dist(o.Pos()) >= o.Radius {
			continue
		}
		switch o.Kind {
		case ObstacleIce:
			p.OnIce = true
		case ObstacleSnowdrift:
			p.InSnowdrift = true
			p.slowFactor = o.slowFactor
		case ObstacleDanger:
			p.OnDangerIce = true
			if limit == 0 || o.dangerSteps < limit {
				limit = o.dangerSteps
			}
		}
	}
	return limit
}

// relocate puts p at pos with no momentum and fresh terrain state.
func (w *World) relocate(p *Player, pos Vec2) {
	p.SetPos(w.bounds.Clamp(pos))
	p.VX, p.VY = 0, 0
	w.applyTerrain(p)
	p.dangerSteps = 0
}

func (g *Game) playerSpeed(p *Player, now time.Time) float64 {
	speed := levelInfo(p.Level).Speed
	if p.Has(PowerupSpeed, now) {
		speed *= 2
	}
	if p.InSnowdrift {
		factor := p.slowFactor
		if factor <= 0 || factor > 1 {
			factor = defaultSlow
		}
		speed *= factor
	}
	return speed
}

func (g *Game) move(ctx context.Context, p *Player, req MoveRequest, now time.Time) {
	if p.IsFrozen(now) {
		return
	}

	dir := Vec2{req.DX, req.DY}
	if dir.Len() > 1 {
		dir = dir.Normalize()
	}
	delta := dir.Scale(g.playerSpeed(p, now))
	if p.OnIce {
		v := Vec2{p.VX, p.VY}.Scale(iceFriction).Add(delta.Scale(iceAcceleration))
		p.VX, p.VY = v.X, v.Y
		delta = v
	} else {
		p.VX, p.VY = 0, 0
	}

	pos := g.world.bounds.Clamp(p.Pos().Add(delta))
	p.SetPos(g.world.resolveSolid(pos, playerRadius))
	p.LastUpdate = now.UnixMilli()

	g.stepTerrain(ctx, p, now)

	if p.Has(PowerupMagnet, now) {
		g.attractGifts(ctx, p)
	}

	g.broadcast(ctx, EvPlayerMoved, PlayerMovedEvent{
		PlayerID:    p.ID,
		X:           p.X,
		Y:           p.Y,
		VX:          p.VX,
		VY:          p.VY,
		OnIce:       p.OnIce,
		InSnowdrift: p.InSnowdrift,
		OnDangerIce: p.OnDangerIce,
		Frozen:      p.Frozen,
	})
}

// stepTerrain counts consecutive steps on danger ice and drops the player
// through once the zone's threshold is passed.
func (g *Game) stepTerrain(ctx context.Context, p *Player, now time.Time) {
	limit := g.world.applyTerrain(p)
	if !p.OnDangerIce {
		p.dangerSteps = 0
		return
	}
	p.dangerSteps++
	if p.dangerSteps > limit && !p.Has(PowerupShield, now) {
		g.fallThroughIce(ctx, p, now)
	}
}

func (g *Game) fallThroughIce(ctx context.Context, p *Player, now time.Time) {
	lost := p.Score / fallPenaltyRatio
	p.Score -= lost
	g.world.relocate(p, g.world.SafePosition(g.rng))

	g.broadcast(ctx, EvPlayerFellThroughIce, FellThroughIceEvent{
		PlayerID:   p.ID,
		X:          p.X,
		Y:          p.Y,
		LostPoints: lost,
		Score:      p.Score,
	})
	g.systemChat(ctx, now, fmt.Sprintf("💦 %s fell through the ice! Lost %d points!", p.Name, lost))
}

func (g *Game) attractGifts(ctx context.Context, p *Player) {
	var moved []GiftPosition
	pos := p.Pos()
	for _, gift := range g.world.Gifts() {
		d := gift.Pos().Dist(pos)
		if d >= magnetRange || d == 0 {
			continue
		}
		next := gift.Pos().StepToward(pos, magnetStep)
		gift.X, gift.Y = next.X, next.Y
		moved = append(moved, GiftPosition{ID: gift.ID, X: gift.X, Y: gift.Y})
	}
	if len(moved) > 0 {
		g.broadcast(ctx, EvGiftsMoved, GiftsMovedEvent{Gifts: moved})
	}
}
