package application

import (
	"context"
	"fmt"
	"time"
)

const spawnJitter = 50

type roundState struct {
	active  bool
	endTime time.Time
	nextAt  time.Time
}

// RoundActive reports whether a round has started and not yet ended.
func (g *Game) RoundActive() bool { return g.round.active }

func (g *Game) staffedTeams() int {
	n := 0
	for _, t := range g.world.teams {
		if len(t.Members) > 0 {
			n++
		}
	}
	return n
}

// roundStartTick starts rounds in capture mode only. Switching to another mode
// leaves the loop idle until capture mode returns; a running round still ends.
func (g *Game) roundStartTick(ctx context.Context, now time.Time) {
	if g.round.active || g.mode != ModeCapture || now.Before(g.round.nextAt) {
		return
	}
	if g.staffedTeams() < g.minTeams {
		return
	}
	g.startRound(ctx, now)
}

func (g *Game) startRound(ctx context.Context, now time.Time) {
	s, sp := g.level.Settings, g.level.Spawners

	for _, p := range g.world.Players() {
		p.Hits = 0
		p.RoundGifts = 0
		p.Frozen, p.FrozenUntil = false, 0
		p.Snowballs = s.InitialSnowballs
		if t, ok := g.world.teams[p.Team]; ok && t.Spawn != nil {
			g.world.relocate(p, g.world.spawnNear(g.rng, *t.Spawn, spawnJitter))
		}
	}
	for _, t := range g.world.teams {
		t.RoundGifts = 0
	}

	clear(g.world.gifts)
	for range sp.Gift.Min {
		g.spawnGift(ctx, g.world.SafePosition(g.rng), now, false)
	}
	for len(g.world.powerups) < sp.Powerup.Min {
		g.spawnPowerup(ctx, now, false)
	}

	g.round = roundState{active: true, endTime: now.Add(s.RoundDuration.Duration())}

	g.broadcast(ctx, EvRoundStart, RoundStartEvent{
		RoundEndTime:  g.round.endTime.UnixMilli(),
		RoundDuration: s.RoundDuration.Duration().Milliseconds(),
		Players:       g.world.Players(),
		Gifts:         g.world.Gifts(),
		Powerups:      g.world.Powerups(),
		Teams:         g.world.Teams(),
	})
	g.systemChat(ctx, now, "🎄 A new round has started! Capture an enemy tree or collect the most gifts!")
}

func (g *Game) roundTimerTick(ctx context.Context, now time.Time) {
	if !g.round.active {
		return
	}
	if !now.Before(g.round.endTime) {
		g.endRoundOnTime(ctx, now)
		return
	}
	g.broadcast(ctx, EvRoundTimer, RoundTimerEvent{
		RoundEndTime: g.round.endTime.UnixMilli(),
		Remaining:    g.round.endTime.Sub(now).Milliseconds(),
	})
}

// captureTick checks players in ascending ID order, so the lowest ID wins
// when two captures land in the same check.
func (g *Game) captureTick(ctx context.Context, now time.Time) {
	if !g.round.active {
		return
	}
	radius := g.level.Settings.CaptureRadius
	for _, p := range g.world.Players() {
		if p.Team == "" || p.IsFrozen(now) {
			continue
		}
		for _, t := range g.world.Teams() {
			if t.ID == p.Team || t.Tree == nil {
				continue
			}
			if p.Pos().Dist(*t.Tree) <= radius {
				g.captureTree(ctx, p, t, now)
				return
			}
		}
	}
}

func (g *Game) captureTree(ctx context.Context, p *Player, captured *Team, now time.Time) {
	winner, ok := g.world.teams[p.Team]
	if !ok {
		return
	}
	winner.Wins++
	p.Captures++

	g.broadcast(ctx, EvTreeCapture, TreeCaptureEvent{
		PlayerID:     p.ID,
		PlayerName:   p.Name,
		Team:         winner.ID,
		CapturedTeam: captured.ID,
		X:            captured.Tree.X,
		Y:            captured.Tree.Y,
	})
	g.systemChat(ctx, now, fmt.Sprintf("🎄 %s captured the %s tree for %s!", p.Name, captured.Name, winner.Name))
	g.endRound(ctx, now, EndCapture, winner, p)
}

// tally sums the round gifts of each team's current members.
func (g *Game) tally() []TeamTally {
	teams := g.world.Teams()
	out := make([]TeamTally, 0, len(teams))
	for _, t := range teams {
		sum := 0
		for _, id := range t.Members {
			if p, ok := g.world.players[id]; ok {
				sum += p.RoundGifts
			}
		}
		out = append(out, TeamTally{TeamID: t.ID, Name: t.Name, Gifts: sum})
	}
	return out
}

func (g *Game) endRoundOnTime(ctx context.Context, now time.Time) {
	best, count := -1, 0
	var leader string
	for _, tt := range g.tally() {
		switch {
		case tt.Gifts > best:
			best, count, leader = tt.Gifts, 1, tt.TeamID
		case tt.Gifts == best:
			count++
		}
	}
	if count != 1 {
		g.systemChat(ctx, now, "⏰ Time's up! The round ended in a tie.")
		g.endRound(ctx, now, EndTie, nil, nil)
		return
	}
	winner := g.world.teams[leader]
	winner.Wins++
	g.systemChat(ctx, now, fmt.Sprintf("⏰ Time's up! %s wins with %d gifts!", winner.Name, best))
	g.endRound(ctx, now, EndGifts, winner, nil)
}

// endRound closes the active round once and schedules the next one.
func (g *Game) endRound(ctx context.Context, now time.Time, reason string, winner *Team, capturer *Player) {
	if !g.round.active {
		return
	}
	g.round.active = false
	g.round.nextAt = now.Add(g.level.Settings.RestartDelay.Duration())

	ev := RoundEndEvent{
		Reason: reason,
		Gifts:  g.tally(),
		Teams:  g.world.Teams(),
	}
	if winner != nil {
		ev.Winner, ev.WinnerName = winner.ID, winner.Name
	}
	if capturer != nil {
		ev.CapturedBy = capturer.ID
	}
	g.broadcast(ctx, EvRoundEnd, ev)
	g.requestSnapshot(ctx)
}
