package application

import (
	"context"
	"testing"
	"time"
)

func placeGrinch(g *Game, id string, pos Vec2) *Grinch {
	gr := &Grinch{ID: id, X: pos.X, Y: pos.Y, Speed: grinchSpeed}
	g.world.grinches[id] = gr
	return gr
}

func TestGrinch_Chases(t *testing.T) {
	g, rec, clock := newTestGame(t)
	addPlayer(g, "alice", "", Vec2{1000, 1000})
	gr := placeGrinch(g, "grinch_1", Vec2{1300, 1000})

	g.grinchTick(context.Background(), clock.Now())

	if gr.Target != "alice" || !approx(gr.X, 1297) || gr.Y != 1000 {
		t.Errorf("grinch = %+v, want chasing alice at (1297, 1000)", gr)
	}
	ev := only[GrinchMovedEvent](t, rec, EvGrinchMoved)
	if ev.GrinchID != "grinch_1" || !approx(ev.X, 1297) {
		t.Errorf("grinchMoved = %+v", ev)
	}
}

func TestGrinch_Steals(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		shield     bool
		wantStolen int
	}{
		{name: "five percent", score: 600, wantStolen: 30},
		{name: "capped", score: 2000, wantStolen: 50},
		{name: "nothing worth taking", score: 10, wantStolen: 0},
		{name: "shielded", score: 600, shield: true, wantStolen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec, clock := newTestGame(t)
			p := addPlayer(g, "alice", "", Vec2{1000, 1000})
			p.Score = tt.score
			if tt.shield {
				p.Powerups[PowerupShield] = clock.Now().Add(time.Second).UnixMilli()
			}
			gr := placeGrinch(g, "grinch_1", Vec2{1020, 1000})

			g.grinchTick(context.Background(), clock.Now())

			if p.Score != tt.score-tt.wantStolen {
				t.Errorf("score = %d, want %d", p.Score, tt.score-tt.wantStolen)
			}
			stole := rec.ofType(EvGrinchStole)
			if tt.wantStolen == 0 {
				if len(stole) != 0 || gr.Steals != 0 {
					t.Errorf("grinchStole frames=%d steals=%d, want none", len(stole), gr.Steals)
				}
				return
			}
			ev := only[GrinchStoleEvent](t, rec, EvGrinchStole)
			if ev.StolenPoints != tt.wantStolen || ev.PlayerScore != p.Score || ev.PlayerID != "alice" {
				t.Errorf("grinchStole = %+v, want %d stolen from alice", ev, tt.wantStolen)
			}
			if gr.Steals != 1 {
				t.Errorf("steals = %d, want 1", gr.Steals)
			}
			// The grinch retreats after a theft.
			if d := gr.Pos().Dist(Vec2{1017, 1000}); !approx(d, grinchRetreat) {
				t.Errorf("retreat distance = %v, want %v", d, grinchRetreat)
			}
		})
	}
}

func TestGrinch_IgnoresInvisible(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ghost := addPlayer(g, "alice", "", Vec2{1000, 1000})
	ghost.Powerups[PowerupInvisible] = clock.Now().Add(7 * time.Second).UnixMilli()
	gr := placeGrinch(g, "grinch_1", Vec2{1300, 1000})

	g.grinchTick(context.Background(), clock.Now())
	if gr.Target != "" || gr.X != 1300 {
		t.Errorf("grinch = %+v, want idle", gr)
	}
	if n := len(rec.ofType(EvGrinchMoved)); n != 0 {
		t.Errorf("grinchMoved frames = %d, want 0", n)
	}

	addPlayer(g, "bob", "", Vec2{2000, 1000})
	g.grinchTick(context.Background(), clock.Now())
	if gr.Target != "bob" {
		t.Errorf("target = %q, want bob", gr.Target)
	}
}

func TestGrinchFloorTick(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()
	g.level.Spawners.Grinch.Max = 2

	g.grinchFloorTick(ctx, clock.Now())
	if len(g.world.grinches) != 0 {
		t.Fatalf("grinch spawned in an empty room")
	}

	addPlayer(g, "alice", "", Vec2{1000, 1000})
	for range 5 {
		g.grinchFloorTick(ctx, clock.Now())
	}
	if len(g.world.grinches) != 2 {
		t.Errorf("grinches = %d, want 2", len(g.world.grinches))
	}
	if n := len(rec.ofType(EvGrinchSpawned)); n != 2 {
		t.Errorf("grinchSpawned frames = %d, want 2", n)
	}
}
