package application

import (
	"context"
	"fmt"
	"time"
)

const (
	weatherInterval = 60 * time.Second
	dayInterval     = 120 * time.Second
)

func (g *Game) weatherTick(ctx context.Context, now time.Time) {
	next := weathers[g.rng.IntN(len(weathers))]
	if next == g.weather {
		return
	}
	g.weather = next
	g.broadcast(ctx, EvWeatherChanged, WeatherChangedEvent{Weather: next})
	g.systemChat(ctx, now, fmt.Sprintf("🌤️ Weather changed to %s!", next))
}

func (g *Game) dayTick(ctx context.Context, _ time.Time) {
	g.dayIndex = (g.dayIndex + 1) % len(dayCycle)
	g.broadcast(ctx, EvTimeChanged, TimeChangedEvent{TimeOfDay: dayCycle[g.dayIndex]})
}
