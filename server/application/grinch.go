package application

import (
	"context"
	"math"
	"time"
)

const (
	grinchTick      = 100 * time.Millisecond
	grinchSpeed     = 3
	grinchCatch     = 30
	grinchStealPct  = 5
	grinchStealMax  = 50
	grinchRetreat   = 200
	grinchClearance = playerRadius
)

func (g *Game) spawnGrinch(ctx context.Context) *Grinch {
	pos := g.world.SafePosition(g.rng)
	gr := &Grinch{
		ID:    g.world.nextGrinchID(),
		X:     pos.X,
		Y:     pos.Y,
		Speed: grinchSpeed,
	}
	g.world.grinches[gr.ID] = gr
	g.broadcast(ctx, EvGrinchSpawned, GrinchSpawnedEvent{Grinch: gr})
	return gr
}

// grinchFloorTick keeps at least one more grinch coming while players are around.
func (g *Game) grinchFloorTick(ctx context.Context, _ time.Time) {
	if len(g.world.players) == 0 || len(g.world.grinches) >= g.level.Spawners.Grinch.Max {
		return
	}
	g.spawnGrinch(ctx)
}

func (g *Game) grinchTick(ctx context.Context, now time.Time) {
	if len(g.world.players) == 0 {
		return
	}
	for _, gr := range g.world.Grinches() {
		g.updateGrinch(ctx, gr, now)
	}
}

func (g *Game) updateGrinch(ctx context.Context, gr *Grinch, now time.Time) {
	target := g.nearestPlayer(gr.Pos(), math.Inf(1), true, now)
	if target == nil {
		gr.Target = ""
		return
	}
	gr.Target = target.ID

	before := gr.Pos()
	dist := before.Dist(target.Pos())
	next := before.StepToward(target.Pos(), gr.Speed)
	gr.SetPos(g.world.resolveSolid(g.world.bounds.Clamp(next), grinchClearance))

	if dist < grinchCatch && !target.Has(PowerupShield, now) {
		if stolen := min(grinchStealMax, target.Score*grinchStealPct/100); stolen > 0 {
			target.Score -= stolen
			gr.Steals++
			g.broadcast(ctx, EvGrinchStole, GrinchStoleEvent{
				GrinchID:     gr.ID,
				PlayerID:     target.ID,
				StolenPoints: stolen,
				PlayerScore:  target.Score,
			})

			angle := g.rng.Float64() * 2 * math.Pi
			jump := Vec2{math.Cos(angle), math.Sin(angle)}.Scale(grinchRetreat)
			gr.SetPos(g.world.bounds.Clamp(gr.Pos().Add(jump)))
		}
	}

	if gr.Pos() != before {
		g.broadcast(ctx, EvGrinchMoved, GrinchMovedEvent{GrinchID: gr.ID, X: gr.X, Y: gr.Y})
	}
}
