package application

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

var ErrInvalidLevel = errors.New("invalid level")

//go:embed levels/capture-christmas.json
var captureChristmas []byte

// Millis is a duration written as integer milliseconds in level files.
type Millis int64

func (m Millis) Duration() time.Duration { return time.Duration(m) * time.Millisecond }

type ObjectCategory string

const (
	CategorySolid   ObjectCategory = "solid"
	CategoryTurret  ObjectCategory = "turret"
	CategoryTerrain ObjectCategory = "terrain"
)

type TerrainEffect string

const (
	EffectSlide  TerrainEffect = "slide"
	EffectSlow   TerrainEffect = "slow"
	EffectDanger TerrainEffect = "danger"
)

// ObjectType holds the physics of one kind of placed object.
type ObjectType struct {
	Category        ObjectCategory `json:"category"`
	Effect          TerrainEffect  `json:"effect,omitempty"`
	Radius          float64        `json:"radius"`
	Emoji           string         `json:"emoji,omitempty"`
	SlowFactor      float64        `json:"slowFactor,omitempty"`
	DangerSteps     int            `json:"dangerSteps,omitempty"`
	FireIntervalMin Millis         `json:"fireIntervalMinMs,omitempty"`
	FireIntervalMax Millis         `json:"fireIntervalMaxMs,omitempty"`
}

// Placement puts an object type at a point. Radius overrides the type's radius when set.
type Placement struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty"`
}

type TeamConfig struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Spawn Vec2   `json:"spawn"`
	Tree  Vec2   `json:"tree"`
}

type Spawner struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Interval Millis `json:"intervalMs"`
}

type Spawners struct {
	Gift    Spawner `json:"gift"`
	Powerup Spawner `json:"powerup"`
	Grinch  Spawner `json:"grinch"`
}

type RoundSettings struct {
	RoundDuration    Millis  `json:"roundDurationMs"`
	FreezeDuration   Millis  `json:"freezeDurationMs"`
	HitsToRespawn    int     `json:"hitsToRespawn"`
	InitialSnowballs int     `json:"initialSnowballs"`
	MaxSnowballs     int     `json:"maxSnowballs"`
	CaptureRadius    float64 `json:"captureRadius"`
	RestartDelay     Millis  `json:"restartDelayMs"`
	TimerInterval    Millis  `json:"timerIntervalMs"`
	CaptureCheck     Millis  `json:"captureCheckMs"`
	StartCheck       Millis  `json:"startCheckMs"`
}

// Level is the static configuration of one playable world.
type Level struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Mode        string                `json:"mode"`
	World       Bounds                `json:"world"`
	Teams       []TeamConfig          `json:"teams"`
	ObjectTypes map[string]ObjectType `json:"objectTypes"`
	Objects     []Placement           `json:"objects"`
	Terrain     []Placement           `json:"terrain"`
	Spawners    Spawners              `json:"spawners"`
	Settings    RoundSettings         `json:"settings"`
}

// DefaultLevel returns a fresh copy of the built-in capture level.
func DefaultLevel() *Level {
	lvl, err := LoadLevel(bytes.NewReader(captureChristmas))
	if err != nil {
		panic(fmt.Sprintf("built-in level: %v", err))
	}
	return lvl
}

func LoadLevel(r io.Reader) (*Level, error) {
	var lvl Level
	if err := json.NewDecoder(r).Decode(&lvl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	lvl.applyDefaults()
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *Level) applyDefaults() {
	if l.Mode == "" {
		l.Mode = ModeCapture
	}
	s := &l.Settings
	setMillis(&s.RoundDuration, 180_000)
	setMillis(&s.FreezeDuration, 5_000)
	setMillis(&s.RestartDelay, 5_000)
	setMillis(&s.TimerInterval, 1_000)
	setMillis(&s.CaptureCheck, 200)
	setMillis(&s.StartCheck, 1_000)
	if s.HitsToRespawn <= 0 {
		s.HitsToRespawn = 3
	}
	if s.InitialSnowballs <= 0 {
		s.InitialSnowballs = 10
	}
	if s.MaxSnowballs <= 0 {
		s.MaxSnowballs = 20
	}
	if s.CaptureRadius <= 0 {
		s.CaptureRadius = 80
	}
	setMillis(&l.Spawners.Gift.Interval, 4_000)
	setMillis(&l.Spawners.Powerup.Interval, 7_000)
	setMillis(&l.Spawners.Grinch.Interval, 45_000)
}

func setMillis(m *Millis, def Millis) {
	if *m <= 0 {
		*m = def
	}
}

func (l *Level) Validate() error {
	if l.World.Width <= 0 || l.World.Height <= 0 {
		return fmt.Errorf("%w: world size %vx%v", ErrInvalidLevel, l.World.Width, l.World.Height)
	}
	seen := make(map[string]bool, len(l.Teams))
	for _, t := range l.Teams {
		if t.ID == "" || seen[t.ID] {
			return fmt.Errorf("%w: team id %q empty or duplicated", ErrInvalidLevel, t.ID)
		}
		seen[t.ID] = true
	}
	for name, ot := range l.ObjectTypes {
		switch ot.Category {
		case CategorySolid:
		case CategoryTurret:
			if ot.FireIntervalMin <= 0 || ot.FireIntervalMin > ot.FireIntervalMax {
				return fmt.Errorf("%w: turret %q fire interval %d..%d", ErrInvalidLevel, name, ot.FireIntervalMin, ot.FireIntervalMax)
			}
		case CategoryTerrain:
			switch ot.Effect {
			case EffectSlide, EffectSlow, EffectDanger:
			default:
				return fmt.Errorf("%w: terrain %q has unknown effect %q", ErrInvalidLevel, name, ot.Effect)
			}
		default:
			return fmt.Errorf("%w: object type %q has unknown category %q", ErrInvalidLevel, name, ot.Category)
		}
	}
	for _, p := range append(append([]Placement(nil), l.Objects...), l.Terrain...) {
		if _, ok := l.ObjectTypes[p.Type]; !ok {
			return fmt.Errorf("%w: unknown object type %q", ErrInvalidLevel, p.Type)
		}
	}
	for _, sp := range []Spawner{l.Spawners.Gift, l.Spawners.Powerup, l.Spawners.Grinch} {
		if sp.Min < 0 || sp.Max < sp.Min {
			return fmt.Errorf("%w: spawner bounds %d..%d", ErrInvalidLevel, sp.Min, sp.Max)
		}
	}
	return nil
}

// Obstacles expands objects and terrain into runtime obstacles with stable IDs.
func (l *Level) Obstacles() []*Obstacle {
	out := make([]*Obstacle, 0, len(l.Objects)+len(l.Terrain))
	for _, p := range append(append([]Placement(nil), l.Objects...), l.Terrain...) {
		ot := l.ObjectTypes[p.Type]
		radius := ot.Radius
		if p.Radius > 0 {
			radius = p.Radius
		}
		ob := &Obstacle{
			ID:     fmt.Sprintf("obs_%d", len(out)),
			Type:   p.Type,
			X:      p.X,
			Y:      p.Y,
			Radius: radius,
			Emoji:  ot.Emoji,
		}
		switch ot.Category {
		case CategorySolid:
			ob.Kind, ob.Solid = ObstacleSolid, true
		case CategoryTurret:
			ob.Kind, ob.Solid = ObstacleTurret, true
			ob.fireMin, ob.fireMax = ot.FireIntervalMin.Duration(), ot.FireIntervalMax.Duration()
		case CategoryTerrain:
			switch ot.Effect {
			case EffectSlide:
				ob.Kind = ObstacleIce
			case EffectSlow:
				ob.Kind = ObstacleSnowdrift
				ob.slowFactor = ot.SlowFactor
				if ob.slowFactor <= 0 {
					ob.slowFactor = 0.5
				}
			case EffectDanger:
				ob.Kind = ObstacleDanger
				ob.dangerSteps = ot.DangerSteps
				if ob.dangerSteps <= 0 {
					ob.dangerSteps = 30
				}
			}
		}
		out = append(out, ob)
	}
	return out
}
