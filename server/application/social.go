package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (g *Game) playerChat(ctx context.Context, p *Player, req ChatRequest, now time.Time) {
	text := clip(strings.TrimSpace(req.Text), maxChatLen)
	if text == "" {
		return
	}
	g.addChat(ctx, ChatMessage{
		ID:        g.newChatID(now),
		Type:      "player",
		PlayerID:  p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Team:      p.Team,
		Text:      text,
		Timestamp: now.UnixMilli(),
	})
}

func (g *Game) emote(ctx context.Context, p *Player, emote string, now time.Time) {
	if !slices.Contains(emotes, emote) {
		return
	}
	if now.UnixMilli()-p.LastEmote < emoteCooldown.Milliseconds() {
		return
	}
	p.LastEmote = now.UnixMilli()
	g.broadcast(ctx, EvPlayerEmote, PlayerEmoteEvent{PlayerID: p.ID, Emote: emote, X: p.X, Y: p.Y})
}

func (g *Game) joinTeam(ctx context.Context, p *Player, teamID string, now time.Time) {
	t, ok := g.world.Team(teamID)
	if !ok || p.Team == teamID {
		return
	}
	g.world.setTeam(p, teamID)
	g.broadcast(ctx, EvPlayerTeamChanged, PlayerTeamChangedEvent{PlayerID: p.ID, TeamID: teamID})
	g.systemChat(ctx, now, fmt.Sprintf("%s joined %s!", p.Name, t.Name))
}

func (g *Game) createTeam(ctx context.Context, p *Player, req CreateTeamRequest, now time.Time) {
	id := uuid.NewString()[:8]
	name := clip(strings.TrimSpace(req.Name), maxNameLen)
	if name == "" {
		name = "Team " + id
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = playerColors[g.rng.IntN(len(playerColors))]
	}
	spawn := g.world.SafePosition(g.rng)
	t := &Team{
		ID:      id,
		Name:    name,
		Color:   color,
		Members: []string{},
		Spawn:   &spawn,
		Creator: p.ID,
	}
	g.world.teams[id] = t
	g.world.setTeam(p, id)

	g.broadcast(ctx, EvTeamCreated, TeamCreatedEvent{Team: t})
	g.broadcast(ctx, EvPlayerTeamChanged, PlayerTeamChangedEvent{PlayerID: p.ID, TeamID: id})
	g.systemChat(ctx, now, fmt.Sprintf("%s created %s!", p.Name, t.Name))
	g.requestSnapshot(ctx)
}

func (g *Game) setMode(ctx context.Context, mode string) {
	if !slices.Contains(gameModes, mode) {
		return
	}
	g.mode = mode
	g.broadcast(ctx, EvModeChanged, ModeChangedEvent{Mode: mode})
}
