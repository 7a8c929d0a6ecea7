package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
	"github.com/jhaladik/christmas-hunt-game/server/store"
)

// ErrStale marks a message from a session with no live player behind it.
var ErrStale = errors.New("stale session")

const (
	chatHistory   = 100
	welcomeChat   = 50
	maxChatLen    = 200
	maxNameLen    = 20
	emoteCooldown = time.Second
)

type Clock interface {
	Now() time.Time
	Since(time.Time) time.Duration
}

type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

type Config struct {
	Room            string
	Level           *Level
	MinTeamsToStart int
	// Store is optional; without it nothing is persisted.
	Store     store.Store
	Clock     Clock
	Rand      *rand.Rand
	Validator Validator
}

type sessionRecord struct {
	playerID string
	joined   bool
}

// Game is the simulation of one room. It implements domain.Application and,
// like every Application, is driven from a single goroutine.
type Game struct {
	room     string
	level    *Level
	world    *World
	clock    Clock
	rng      *rand.Rand
	validate Validator
	tracer   trace.Tracer

	pub    domain.Publisher
	store  store.Store
	writer *store.Writer

	sessions map[domain.SessionID]*sessionRecord
	chat     []ChatMessage
	mode     string
	weather  Weather
	dayIndex int
	minTeams int
	round    roundState
}

var _ domain.Application = (*Game)(nil)

func NewGame(cfg Config) (*Game, error) {
	level := cfg.Level
	if level == nil {
		level = DefaultLevel()
	} else if err := level.Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	validator := cfg.Validator
	if validator == nil {
		validator = SimpleValidator{}
	}
	minTeams := cfg.MinTeamsToStart
	if minTeams <= 0 {
		minTeams = 1
	}
	return &Game{
		room:     cfg.Room,
		level:    level,
		world:    NewWorld(level),
		clock:    clock,
		rng:      rng,
		validate: validator,
		tracer:   otel.Tracer("github.com/jhaladik/christmas-hunt-game/server/application"),
		store:    cfg.Store,
		sessions: make(map[domain.SessionID]*sessionRecord),
		mode:     level.Mode,
		weather:  WeatherClear,
		dayIndex: slices.Index(dayCycle, TimeDay),
		minTeams: minTeams,
	}, nil
}

// Factory returns a domain.ApplicationFactory building one Game per room.
// A base Rand only seeds each room's own source; rooms never share one.
// The factory itself is not safe for concurrent use.
func Factory(base Config) domain.ApplicationFactory {
	return func(name domain.RoomName) (domain.Application, error) {
		cfg := base
		cfg.Room = name.String()
		if base.Rand != nil {
			cfg.Rand = rand.New(rand.NewPCG(base.Rand.Uint64(), base.Rand.Uint64()))
		}
		return NewGame(cfg)
	}
}

func (g *Game) World() *World { return g.world }

func (g *Game) Start(ctx context.Context, pub domain.Publisher) error {
	if pub == nil {
		return errors.New("game: publisher is required")
	}
	g.pub = pub

	if g.store != nil {
		snap, err := g.store.Load(ctx, g.room)
		switch {
		case err == nil:
			g.restore(snap)
			slog.InfoContext(ctx, "game: snapshot restored", "room", g.room, "gifts", len(snap.Gifts), "teams", len(snap.Teams))
		case errors.Is(err, store.ErrNoSnapshot):
		default:
			slog.WarnContext(ctx, "game: snapshot ignored", "room", g.room, "err", err)
		}

		w, err := store.NewWriter(g.store, g.room)
		if err != nil {
			return err
		}
		// The writer outlives ctx so Stop can still persist the last snapshot.
		if err := w.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		g.writer = w
	}

	now := g.clock.Now()
	for _, o := range g.world.obstacles {
		if o.Kind == ObstacleTurret {
			g.scheduleTurret(o, now)
		}
	}
	slog.InfoContext(ctx, "game: started", "room", g.room, "level", g.level.ID, "obstacles", len(g.world.obstacles))
	return nil
}

func (g *Game) Stop(ctx context.Context) {
	if g.writer == nil {
		return
	}
	g.requestSnapshot(ctx)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := g.writer.Stop(ctx); err != nil {
		slog.ErrorContext(ctx, "game: snapshot writer stop", "room", g.room, "err", err)
	}
}

func (g *Game) Schedules() []domain.Schedule {
	s, sp := g.level.Settings, g.level.Spawners
	return []domain.Schedule{
		{Name: "gift-spawner", Interval: sp.Gift.Interval.Duration(), Run: g.spawnGiftTick},
		{Name: "powerup-spawner", Interval: sp.Powerup.Interval.Duration(), Run: g.spawnPowerupTick},
		{Name: "grinch-floor", Interval: sp.Grinch.Interval.Duration(), Run: g.grinchFloorTick},
		{Name: "grinch-ai", Interval: grinchTick, Run: g.grinchTick},
		{Name: "snowballs", Interval: snowballTick, Run: g.snowballTick},
		{Name: "round-start", Interval: s.StartCheck.Duration(), Run: g.roundStartTick},
		{Name: "round-timer", Interval: s.TimerInterval.Duration(), Run: g.roundTimerTick},
		{Name: "capture-check", Interval: s.CaptureCheck.Duration(), Run: g.captureTick},
		{Name: "weather", Interval: weatherInterval, Run: g.weatherTick},
		{Name: "day-cycle", Interval: dayInterval, Run: g.dayTick},
	}
}

func (g *Game) Connect(ctx context.Context, sessionID domain.SessionID) {
	if _, ok := g.sessions[sessionID]; ok {
		return
	}
	g.sessions[sessionID] = &sessionRecord{}
	slog.DebugContext(ctx, "game: session connected", "room", g.room, "sessionID", sessionID)
}

func (g *Game) Disconnect(ctx context.Context, sessionID domain.SessionID) {
	rec, ok := g.sessions[sessionID]
	if !ok {
		return
	}
	delete(g.sessions, sessionID)
	if !rec.joined {
		return
	}
	p, ok := g.world.removePlayer(rec.playerID)
	if !ok {
		return
	}
	g.broadcast(ctx, EvPlayerLeft, PlayerLeftEvent{PlayerID: p.ID})
	g.systemChat(ctx, g.clock.Now(), fmt.Sprintf("%s left the game", p.Name))
}

func (g *Game) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	msgType, err := domain.PeekType(data)
	if err != nil {
		return err
	}
	ctx, span := g.tracer.Start(ctx, "game."+msgType, trace.WithAttributes(
		attribute.String("room", g.room),
		attribute.String("session.id", string(sessionID)),
	))
	defer span.End()

	if err := g.dispatch(ctx, sessionID, msgType, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func decodeAnd[T any](data []byte, fn func(T) error) error {
	req, err := domain.Decode[T](data)
	if err != nil {
		return err
	}
	return fn(req)
}

func (g *Game) dispatch(ctx context.Context, sessionID domain.SessionID, msgType string, data []byte) error {
	rec, ok := g.sessions[sessionID]
	if !ok {
		return ErrStale
	}
	now := g.clock.Now()

	if msgType == MsgJoin {
		return decodeAnd(data, func(req JoinRequest) error {
			g.join(ctx, sessionID, rec, req, now)
			return nil
		})
	}
	if !rec.joined {
		return fmt.Errorf("%w: %s before join", ErrStale, msgType)
	}
	p, ok := g.world.Player(rec.playerID)
	if !ok {
		return ErrStale
	}

	switch msgType {
	case MsgMove:
		return decodeAnd(data, func(req MoveRequest) error {
			if err := g.validate.Move(req); err != nil {
				return err
			}
			g.move(ctx, p, req, now)
			return nil
		})
	case MsgChat:
		return decodeAnd(data, func(req ChatRequest) error {
			g.playerChat(ctx, p, req, now)
			return nil
		})
	case MsgCollect:
		return decodeAnd(data, func(req CollectRequest) error {
			if err := g.validate.Collect(req.GiftID); err != nil {
				return err
			}
			g.collectGift(ctx, p, req.GiftID, now)
			return nil
		})
	case MsgCollectPowerup:
		return decodeAnd(data, func(req CollectPowerupRequest) error {
			if err := g.validate.Collect(req.PowerupID); err != nil {
				return err
			}
			g.collectPowerup(ctx, p, req.PowerupID, now)
			return nil
		})
	case MsgThrowSnowball:
		return decodeAnd(data, func(req ThrowSnowballRequest) error {
			if err := g.validate.Throw(req); err != nil {
				return err
			}
			g.throwSnowball(ctx, p, Vec2{req.TargetX, req.TargetY}, now)
			return nil
		})
	case MsgEmote:
		return decodeAnd(data, func(req EmoteRequest) error {
			g.emote(ctx, p, req.Emote, now)
			return nil
		})
	case MsgJoinTeam:
		return decodeAnd(data, func(req JoinTeamRequest) error {
			g.joinTeam(ctx, p, req.TeamID, now)
			return nil
		})
	case MsgCreateTeam:
		return decodeAnd(data, func(req CreateTeamRequest) error {
			g.createTeam(ctx, p, req, now)
			return nil
		})
	case MsgSetMode:
		return decodeAnd(data, func(req SetModeRequest) error {
			g.setMode(ctx, req.Mode)
			return nil
		})
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msgType)
}

func (g *Game) broadcast(ctx context.Context, msgType string, payload any, exclude ...domain.SessionID) {
	data, err := domain.Encode(msgType, payload)
	if err != nil {
		slog.ErrorContext(ctx, "game: encode failed", "type", msgType, "err", err)
		return
	}
	g.pub.Broadcast(ctx, data, exclude...)
}

func (g *Game) sendTo(ctx context.Context, sessionID domain.SessionID, msgType string, payload any) {
	data, err := domain.Encode(msgType, payload)
	if err != nil {
		slog.ErrorContext(ctx, "game: encode failed", "type", msgType, "err", err)
		return
	}
	g.pub.SendTo(ctx, sessionID, data)
}

func (g *Game) newChatID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

func (g *Game) addChat(ctx context.Context, msg ChatMessage) {
	g.chat = append(g.chat, msg)
	if len(g.chat) > chatHistory {
		g.chat = slices.Clone(g.chat[len(g.chat)-chatHistory:])
	}
	g.broadcast(ctx, EvChat, ChatEvent{Message: msg})
}

func (g *Game) systemChat(ctx context.Context, now time.Time, text string) {
	g.addChat(ctx, ChatMessage{
		ID:        g.newChatID(now),
		Type:      "system",
		Text:      text,
		Timestamp: now.UnixMilli(),
	})
}

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func (g *Game) join(ctx context.Context, sessionID domain.SessionID, rec *sessionRecord, req JoinRequest, now time.Time) {
	if rec.joined {
		return
	}
	name := clip(strings.TrimSpace(req.Name), maxNameLen)
	if name == "" {
		name = fmt.Sprintf("Player%d", g.rng.IntN(1000))
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = playerColors[g.rng.IntN(len(playerColors))]
	}

	p := &Player{
		ID:         uuid.NewString(),
		Name:       name,
		Color:      color,
		Level:      levelFor(0).Level,
		Powerups:   make(map[PowerupKind]int64),
		Snowballs:  g.level.Settings.InitialSnowballs,
		LastUpdate: now.UnixMilli(),
	}
	p.SetPos(g.world.SafePosition(g.rng))
	g.world.applyTerrain(p)
	g.world.players[p.ID] = p
	rec.playerID, rec.joined = p.ID, true

	if len(g.world.grinches) < g.level.Spawners.Grinch.Max {
		g.spawnGrinch(ctx)
	}

	g.sendTo(ctx, sessionID, EvWelcome, g.welcome(p))
	g.broadcast(ctx, EvPlayerJoined, PlayerEvent{Player: p}, sessionID)
	g.systemChat(ctx, now, fmt.Sprintf("%s joined the hunt!", p.Name))
	slog.InfoContext(ctx, "game: player joined", "room", g.room, "sessionID", sessionID, "playerID", p.ID, "name", p.Name)
}

func (g *Game) welcome(p *Player) WelcomeEvent {
	chat := g.chat
	if len(chat) > welcomeChat {
		chat = chat[len(chat)-welcomeChat:]
	}
	ev := WelcomeEvent{
		PlayerID:     p.ID,
		Player:       p,
		LevelID:      g.level.ID,
		LevelName:    g.level.Name,
		WorldSize:    g.world.bounds,
		Players:      g.world.Players(),
		Gifts:        g.world.Gifts(),
		Powerups:     g.world.Powerups(),
		Obstacles:    g.world.Obstacles(),
		Grinches:     g.world.Grinches(),
		Snowballs:    g.world.Snowballs(),
		Teams:        g.world.Teams(),
		Chat:         slices.Clone(chat),
		GameMode:     g.mode,
		Levels:       progression,
		PowerupTypes: powerupCatalog(),
		Weather:      g.weather,
		TimeOfDay:    dayCycle[g.dayIndex],
		Emotes:       emotes,
		RoundActive:  g.round.active,
	}
	if g.round.active {
		ev.RoundEndTime = g.round.endTime.UnixMilli()
	}
	return ev
}

// snapshot captures the persisted slice of state: gifts, team standings and the gift counter.
func (g *Game) snapshot() store.Snapshot {
	snap := store.Snapshot{GiftSeq: g.world.giftSeq}
	for _, gift := range g.world.Gifts() {
		snap.Gifts = append(snap.Gifts, store.Gift{
			ID:        gift.ID,
			X:         gift.X,
			Y:         gift.Y,
			Rarity:    uint8(gift.Rarity),
			SpawnedAt: gift.SpawnedAt,
		})
	}
	for _, t := range g.world.Teams() {
		st := store.Team{ID: t.ID, Name: t.Name, Color: t.Color, Score: t.Score, Wins: t.Wins, Creator: t.Creator}
		if t.Spawn != nil {
			st.Spawn = &store.Point{X: t.Spawn.X, Y: t.Spawn.Y}
		}
		if t.Tree != nil {
			st.Tree = &store.Point{X: t.Tree.X, Y: t.Tree.Y}
		}
		snap.Teams = append(snap.Teams, st)
	}
	return snap
}

func (g *Game) restore(snap store.Snapshot) {
	for _, sg := range snap.Gifts {
		r := Rarity(sg.Rarity)
		if int(r) >= len(rarities) {
			r = RarityCommon
		}
		info := r.Info()
		pos := g.world.bounds.Clamp(Vec2{sg.X, sg.Y})
		g.world.gifts[sg.ID] = &Gift{
			ID:        sg.ID,
			X:         pos.X,
			Y:         pos.Y,
			Rarity:    r,
			Color:     info.Color,
			Points:    info.Points,
			Emoji:     info.Emoji,
			SpawnedAt: sg.SpawnedAt,
		}
	}
	g.world.giftSeq = max(g.world.giftSeq, snap.GiftSeq)

	for _, st := range snap.Teams {
		if t, ok := g.world.teams[st.ID]; ok {
			t.Score, t.Wins = st.Score, st.Wins
			continue
		}
		t := &Team{ID: st.ID, Name: st.Name, Color: st.Color, Score: st.Score, Wins: st.Wins, Members: []string{}, Creator: st.Creator}
		if st.Spawn != nil {
			t.Spawn = &Vec2{st.Spawn.X, st.Spawn.Y}
		}
		if st.Tree != nil {
			t.Tree = &Vec2{st.Tree.X, st.Tree.Y}
		}
		g.world.teams[t.ID] = t
	}
}

// requestSnapshot hands the current state to the background writer.
func (g *Game) requestSnapshot(ctx context.Context) {
	if g.writer == nil {
		return
	}
	if err := g.writer.Submit(g.snapshot()); err != nil {
		slog.WarnContext(ctx, "game: snapshot not queued", "room", g.room, "err", err)
	}
}
