package application

import (
	"context"
	"fmt"
	"maps"
	"math"
	"time"
)

const (
	collectRadius  = 60
	freezeRange    = 200
	freezeBurst    = 3 * time.Second
	giftBombCount  = 5
	giftBombRadius = 80
	giftBombSpread = 40
)

func (g *Game) spawnGiftTick(ctx context.Context, now time.Time) {
	if len(g.world.players) == 0 || len(g.world.gifts) >= g.level.Spawners.Gift.Max {
		return
	}
	g.spawnGift(ctx, g.world.SafePosition(g.rng), now, true)
}

func (g *Game) spawnGift(ctx context.Context, pos Vec2, now time.Time, announce bool) *Gift {
	r := rollRarity(g.rng)
	info := r.Info()
	pos = g.world.bounds.Clamp(pos)
	gift := &Gift{
		ID:        g.world.nextGiftID(),
		X:         pos.X,
		Y:         pos.Y,
		Rarity:    r,
		Color:     info.Color,
		Points:    info.Points,
		Emoji:     info.Emoji,
		SpawnedAt: now.UnixMilli(),
	}
	g.world.gifts[gift.ID] = gift
	if announce {
		g.broadcast(ctx, EvGiftSpawned, GiftSpawnedEvent{Gift: gift})
	}
	return gift
}

func (g *Game) collectGift(ctx context.Context, p *Player, giftID string, now time.Time) {
	gift, ok := g.world.gifts[giftID]
	if !ok || p.Pos().Dist(gift.Pos()) > collectRadius {
		return
	}
	g.world.takeGift(giftID)

	points := gift.Points
	if p.Has(PowerupDouble, now) {
		points *= 2
	}
	p.Score += points
	p.GiftsCollected++
	p.RoundGifts++
	p.Snowballs = min(g.level.Settings.MaxSnowballs, p.Snowballs+1)

	prev := p.Level
	if next := levelFor(p.GiftsCollected).Level; next > p.Level {
		p.Level = next
	}
	leveledUp := p.Level > prev

	if t, ok := g.world.teams[p.Team]; ok {
		t.Score += points
		t.RoundGifts++
	}
	g.requestSnapshot(ctx)

	g.broadcast(ctx, EvGiftCollected, GiftCollectedEvent{
		GiftID:         gift.ID,
		PlayerID:       p.ID,
		Points:         points,
		PlayerScore:    p.Score,
		GiftsCollected: p.GiftsCollected,
		Level:          p.Level,
		LeveledUp:      leveledUp,
		Snowballs:      p.Snowballs,
	})
	if leveledUp {
		g.systemChat(ctx, now, fmt.Sprintf("🎉 %s reached level %s!", p.Name, levelInfo(p.Level).Name))
	}
}

func (g *Game) spawnPowerupTick(ctx context.Context, now time.Time) {
	if len(g.world.players) == 0 || len(g.world.powerups) >= g.level.Spawners.Powerup.Max {
		return
	}
	g.spawnPowerup(ctx, now, true)
}

func (g *Game) spawnPowerup(ctx context.Context, now time.Time, announce bool) *Powerup {
	kind := powerupKinds[g.rng.IntN(len(powerupKinds))]
	info := kind.Info()
	pos := g.world.SafePosition(g.rng)
	pu := &Powerup{
		ID:        g.world.nextPowerupID(),
		X:         pos.X,
		Y:         pos.Y,
		Type:      kind,
		Emoji:     info.Emoji,
		Color:     info.Color,
		SpawnedAt: now.UnixMilli(),
	}
	g.world.powerups[pu.ID] = pu
	if announce {
		g.broadcast(ctx, EvPowerupSpawned, PowerupSpawnedEvent{Powerup: pu})
	}
	return pu
}

func (g *Game) collectPowerup(ctx context.Context, p *Player, powerupID string, now time.Time) {
	pu, ok := g.world.powerups[powerupID]
	if !ok || p.Pos().Dist(pu.Pos()) > collectRadius {
		return
	}
	g.world.takePowerup(powerupID)

	info := pu.Type.Info()
	var text string
	switch pu.Type {
	case PowerupSpeed, PowerupMagnet, PowerupShield, PowerupDouble, PowerupInvisible:
		p.Powerups[pu.Type] = now.Add(info.Duration).UnixMilli()
		text = fmt.Sprintf("%s %s got %s!", info.Emoji, p.Name, info.Effect)
	case PowerupFreeze:
		g.freezeBurst(p, now)
		text = fmt.Sprintf("%s %s froze nearby players!", info.Emoji, p.Name)
	case PowerupTeleport:
		g.world.relocate(p, g.world.SafePosition(g.rng))
		text = fmt.Sprintf("%s %s teleported!", info.Emoji, p.Name)
	case PowerupGiftBomb:
		g.giftBomb(ctx, p, now)
		text = fmt.Sprintf("%s %s dropped a gift bomb!", info.Emoji, p.Name)
	}

	g.broadcast(ctx, EvPowerupCollected, PowerupCollectedEvent{
		PowerupID:      pu.ID,
		PlayerID:       p.ID,
		PowerupType:    pu.Type,
		X:              p.X,
		Y:              p.Y,
		PlayerPowerups: maps.Clone(p.Powerups),
	})
	if text != "" {
		g.systemChat(ctx, now, text)
	}
}

// freezeBurst freezes every nearby opponent that is not shielded.
func (g *Game) freezeBurst(p *Player, now time.Time) {
	for _, other := range g.world.Players() {
		if other.ID == p.ID || g.world.teammates(p, other) || other.Has(PowerupShield, now) {
			continue
		}
		if other.Pos().Dist(p.Pos()) < freezeRange {
			other.Freeze(now.Add(freezeBurst))
		}
	}
}

// giftBomb drops gifts on a ring around p. The gift cap does not apply.
func (g *Game) giftBomb(ctx context.Context, p *Player, now time.Time) {
	for i := range giftBombCount {
		angle := float64(i) / giftBombCount * 2 * math.Pi
		dist := giftBombRadius + g.rng.Float64()*giftBombSpread
		offset := Vec2{math.Cos(angle), math.Sin(angle)}.Scale(dist)
		g.spawnGift(ctx, p.Pos().Add(offset), now, true)
	}
}
