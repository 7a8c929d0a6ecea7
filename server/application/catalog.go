package application

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ProgressLevel is one row of the progression table.
type ProgressLevel struct {
	Level         int     `json:"level"`
	Name          string  `json:"name"`
	GiftsRequired int     `json:"giftsRequired"`
	Speed         float64 `json:"speed"`
	GiftPoints    int     `json:"giftPoints"`
}

var progression = []ProgressLevel{
	{Level: 1, Name: "Beginner", GiftsRequired: 0, Speed: 5, GiftPoints: 10},
	{Level: 2, Name: "Collector", GiftsRequired: 10, Speed: 6, GiftPoints: 15},
	{Level: 3, Name: "Hunter", GiftsRequired: 30, Speed: 7, GiftPoints: 20},
	{Level: 4, Name: "Expert", GiftsRequired: 60, Speed: 8, GiftPoints: 25},
	{Level: 5, Name: "Master", GiftsRequired: 100, Speed: 9, GiftPoints: 30},
	{Level: 6, Name: "Legend", GiftsRequired: 150, Speed: 10, GiftPoints: 40},
}

// levelFor returns the highest row whose threshold does not exceed gifts.
func levelFor(gifts int) ProgressLevel {
	current := progression[0]
	for _, l := range progression {
		if gifts >= l.GiftsRequired {
			current = l
		}
	}
	return current
}

func levelInfo(level int) ProgressLevel {
	if level < 1 {
		return progression[0]
	}
	if level > len(progression) {
		return progression[len(progression)-1]
	}
	return progression[level-1]
}

// PowerupKind is the closed set of powerups.
type PowerupKind uint8

const (
	PowerupSpeed PowerupKind = iota + 1
	PowerupMagnet
	PowerupShield
	PowerupFreeze
	PowerupTeleport
	PowerupDouble
	PowerupInvisible
	PowerupGiftBomb
)

var powerupKinds = []PowerupKind{
	PowerupSpeed, PowerupMagnet, PowerupShield, PowerupFreeze,
	PowerupTeleport, PowerupDouble, PowerupInvisible, PowerupGiftBomb,
}

type PowerupInfo struct {
	Kind       PowerupKind   `json:"kind"`
	Emoji      string        `json:"emoji"`
	Color      string        `json:"color"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration"`
	Effect     string        `json:"effect"`
}

func (k PowerupKind) Info() PowerupInfo {
	info := PowerupInfo{Kind: k}
	switch k {
	case PowerupSpeed:
		info.Emoji, info.Color, info.Duration, info.Effect = "⚡", "#ffd700", 5*time.Second, "speed x2"
	case PowerupMagnet:
		info.Emoji, info.Color, info.Duration, info.Effect = "🧲", "#ff6b6b", 8*time.Second, "attract gifts"
	case PowerupShield:
		info.Emoji, info.Color, info.Duration, info.Effect = "🛡️", "#4ecdc4", 10*time.Second, "block damage"
	case PowerupFreeze:
		info.Emoji, info.Color, info.Effect = "❄️", "#87ceeb", "freeze nearby"
	case PowerupTeleport:
		info.Emoji, info.Color, info.Effect = "🌀", "#a855f7", "random location"
	case PowerupDouble:
		info.Emoji, info.Color, info.Duration, info.Effect = "✨", "#ff69b4", 10*time.Second, "2x points"
	case PowerupInvisible:
		info.Emoji, info.Color, info.Duration, info.Effect = "👻", "#dddddd", 7*time.Second, "invisible"
	case PowerupGiftBomb:
		info.Emoji, info.Color, info.Effect = "💣", "#ff4444", "spawn gifts"
	}
	info.DurationMs = info.Duration.Milliseconds()
	return info
}

// Timed kinds leave an expiry on the player; the rest act once.
func (k PowerupKind) Timed() bool { return k.Info().Duration > 0 }

func (k PowerupKind) String() string {
	switch k {
	case PowerupSpeed:
		return "speed"
	case PowerupMagnet:
		return "magnet"
	case PowerupShield:
		return "shield"
	case PowerupFreeze:
		return "freeze"
	case PowerupTeleport:
		return "teleport"
	case PowerupDouble:
		return "double"
	case PowerupInvisible:
		return "invisible"
	case PowerupGiftBomb:
		return "giftbomb"
	}
	return fmt.Sprintf("powerup(%d)", uint8(k))
}

func (k PowerupKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PowerupKind) UnmarshalText(b []byte) error {
	for _, kind := range powerupKinds {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown powerup kind %q", b)
}

func powerupCatalog() map[string]PowerupInfo {
	out := make(map[string]PowerupInfo, len(powerupKinds))
	for _, k := range powerupKinds {
		out[k.String()] = k.Info()
	}
	return out
}

// Rarity is the closed set of gift tiers.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

type RarityInfo struct {
	Name   string
	Color  string
	Points int
	Emoji  string
	Weight int
}

var rarities = [...]RarityInfo{
	RarityCommon:    {Name: "common", Color: "#ff6b6b", Points: 10, Emoji: "🎁", Weight: 50},
	RarityUncommon:  {Name: "uncommon", Color: "#4ecdc4", Points: 25, Emoji: "🎄", Weight: 30},
	RarityRare:      {Name: "rare", Color: "#ffe66d", Points: 50, Emoji: "⭐", Weight: 15},
	RarityEpic:      {Name: "epic", Color: "#a855f7", Points: 100, Emoji: "🌟", Weight: 4},
	RarityLegendary: {Name: "legendary", Color: "#f97316", Points: 200, Emoji: "🎅", Weight: 1},
}

func (r Rarity) Info() RarityInfo {
	if int(r) >= len(rarities) {
		return rarities[RarityCommon]
	}
	return rarities[r]
}

func (r Rarity) String() string { return r.Info().Name }

func (r Rarity) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rarity) UnmarshalText(b []byte) error {
	for i, info := range rarities {
		if info.Name == string(b) {
			*r = Rarity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rarity %q", b)
}

// rollRarity draws a tier by weight.
func rollRarity(rng *rand.Rand) Rarity {
	total := 0
	for _, info := range rarities {
		total += info.Weight
	}
	n := rng.IntN(total)
	for i, info := range rarities {
		if n < info.Weight {
			return Rarity(i)
		}
		n -= info.Weight
	}
	return RarityCommon
}

type Weather string

const (
	WeatherClear    Weather = "clear"
	WeatherSnow     Weather = "snow"
	WeatherBlizzard Weather = "blizzard"
	WeatherAurora   Weather = "aurora"
)

var weathers = []Weather{WeatherClear, WeatherSnow, WeatherBlizzard, WeatherAurora}

type TimeOfDay string

const (
	TimeDawn  TimeOfDay = "dawn"
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
)

var dayCycle = []TimeOfDay{TimeDawn, TimeDay, TimeDusk, TimeNight}

var emotes = []string{"👋", "😀", "😂", "🎉", "👍", "❤️", "🔥", "💀", "😱", "🤔"}

var playerColors = []string{"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4", "#ffeaa7", "#dfe6e9", "#a29bfe", "#fd79a8"}

const (
	ModeFFA     = "ffa"
	ModeTeams   = "teams"
	ModeCapture = "capture"
	ModeCustom  = "custom"
)

var gameModes = []string{ModeFFA, ModeTeams, ModeCapture, ModeCustom}
