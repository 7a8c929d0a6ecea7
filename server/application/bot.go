package application

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
)

// BotView is a client-side copy of the room built from outbound events.
// It holds only what a bot needs to decide its next input.
type BotView struct {
	SelfID    string
	Players   map[string]*Player
	Gifts     map[string]*Gift
	Snowballs map[string]*Snowball
	Grinches  map[string]*Grinch
}

func NewBotView() *BotView {
	return &BotView{
		Players:   make(map[string]*Player),
		Gifts:     make(map[string]*Gift),
		Snowballs: make(map[string]*Snowball),
		Grinches:  make(map[string]*Grinch),
	}
}

func (v *BotView) Self() (*Player, bool) {
	p, ok := v.Players[v.SelfID]
	return p, ok
}

// Apply folds one server frame into the view. Frames the bot does not track
// are ignored.
func (v *BotView) Apply(data []byte) error {
	typ, err := domain.PeekType(data)
	if err != nil {
		return err
	}
	switch typ {
	case EvWelcome:
		ev, err := domain.Decode[WelcomeEvent](data)
		if err != nil {
			return err
		}
		*v = *NewBotView()
		v.SelfID = ev.PlayerID
		v.setPlayers(ev.Players)
		v.setGifts(ev.Gifts)
		for _, sb := range ev.Snowballs {
			v.Snowballs[sb.ID] = sb
		}
		for _, gr := range ev.Grinches {
			v.Grinches[gr.ID] = gr
		}
	case EvRoundStart:
		ev, err := domain.Decode[RoundStartEvent](data)
		if err != nil {
			return err
		}
		v.setPlayers(ev.Players)
		clear(v.Gifts)
		v.setGifts(ev.Gifts)
	case EvPlayerJoined:
		ev, err := domain.Decode[PlayerEvent](data)
		if err != nil {
			return err
		}
		v.Players[ev.Player.ID] = ev.Player
	case EvPlayerLeft:
		ev, err := domain.Decode[PlayerLeftEvent](data)
		if err != nil {
			return err
		}
		delete(v.Players, ev.PlayerID)
	case EvPlayerMoved:
		ev, err := domain.Decode[PlayerMovedEvent](data)
		if err != nil {
			return err
		}
		if p, ok := v.Players[ev.PlayerID]; ok {
			p.X, p.Y, p.Frozen = ev.X, ev.Y, ev.Frozen
		}
	case EvGiftSpawned:
		ev, err := domain.Decode[GiftSpawnedEvent](data)
		if err != nil {
			return err
		}
		v.Gifts[ev.Gift.ID] = ev.Gift
	case EvGiftsMoved:
		ev, err := domain.Decode[GiftsMovedEvent](data)
		if err != nil {
			return err
		}
		for _, gp := range ev.Gifts {
			if g, ok := v.Gifts[gp.ID]; ok {
				g.X, g.Y = gp.X, gp.Y
			}
		}
	case EvGiftCollected:
		ev, err := domain.Decode[GiftCollectedEvent](data)
		if err != nil {
			return err
		}
		delete(v.Gifts, ev.GiftID)
		if p, ok := v.Players[ev.PlayerID]; ok {
			p.Score, p.Snowballs = ev.PlayerScore, ev.Snowballs
		}
	case EvSnowballThrown:
		ev, err := domain.Decode[SnowballThrownEvent](data)
		if err != nil {
			return err
		}
		v.Snowballs[ev.Snowball.ID] = ev.Snowball
		if p, ok := v.Players[ev.Snowball.OwnerID]; ok {
			p.Snowballs = ev.ThrowerSnowballs
		}
	case EvTurretShot:
		ev, err := domain.Decode[TurretShotEvent](data)
		if err != nil {
			return err
		}
		v.Snowballs[ev.Snowball.ID] = ev.Snowball
	case EvSnowballRemoved:
		ev, err := domain.Decode[SnowballRemovedEvent](data)
		if err != nil {
			return err
		}
		delete(v.Snowballs, ev.SnowballID)
	case EvSnowballSplat:
		ev, err := domain.Decode[SnowballSplatEvent](data)
		if err != nil {
			return err
		}
		delete(v.Snowballs, ev.SnowballID)
	case EvSnowballHit:
		ev, err := domain.Decode[SnowballHitEvent](data)
		if err != nil {
			return err
		}
		delete(v.Snowballs, ev.SnowballID)
		if p, ok := v.Players[ev.HitPlayerID]; ok {
			p.X, p.Y = ev.PlayerX, ev.PlayerY
			p.Frozen, p.FrozenUntil = true, ev.FrozenUntil
		}
	case EvGrinchSpawned:
		ev, err := domain.Decode[GrinchSpawnedEvent](data)
		if err != nil {
			return err
		}
		v.Grinches[ev.Grinch.ID] = ev.Grinch
	case EvGrinchMoved:
		ev, err := domain.Decode[GrinchMovedEvent](data)
		if err != nil {
			return err
		}
		if gr, ok := v.Grinches[ev.GrinchID]; ok {
			gr.X, gr.Y = ev.X, ev.Y
		}
	case EvPlayerTeamChanged:
		ev, err := domain.Decode[PlayerTeamChangedEvent](data)
		if err != nil {
			return err
		}
		if p, ok := v.Players[ev.PlayerID]; ok {
			p.Team = ev.TeamID
		}
	}
	return nil
}

func (v *BotView) setPlayers(players []*Player) {
	clear(v.Players)
	for _, p := range players {
		v.Players[p.ID] = p
	}
}

func (v *BotView) setGifts(gifts []*Gift) {
	for _, g := range gifts {
		v.Gifts[g.ID] = g
	}
}

// BotAction is one decision: a move, plus optional pickup and throw.
type BotAction struct {
	Move    Vec2
	Collect string
	Throw   *Vec2
}

// Messages encodes the action as inbound envelopes, in send order.
func (a BotAction) Messages() ([][]byte, error) {
	var out [][]byte
	add := func(typ string, payload any) error {
		b, err := domain.Encode(typ, payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", typ, err)
		}
		out = append(out, b)
		return nil
	}
	if a.Collect != "" {
		if err := add(MsgCollect, CollectRequest{GiftID: a.Collect}); err != nil {
			return nil, err
		}
	}
	if a.Throw != nil {
		if err := add(MsgThrowSnowball, ThrowSnowballRequest{TargetX: a.Throw.X, TargetY: a.Throw.Y}); err != nil {
			return nil, err
		}
	}
	if !a.Move.IsZero() {
		if err := add(MsgMove, MoveRequest{DX: a.Move.X, DY: a.Move.Y}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const (
	botDangerDist = 120
	botGrinchFear = 150
	botThrowRange = 300
	botNoiseAngle = 0.52 // about 30 degrees either way
	throwChance   = 0.05
)

// RuleBot dodges snowballs, avoids grinches, hunts gifts and throws at
// nearby opponents. Each bot gets its own temperament.
type RuleBot struct {
	rng        *rand.Rand
	StrafeSign float64
	Greed      float64 // how far a gift may be before the bot roams instead
}

func NewRuleBot(rng *rand.Rand) *RuleBot {
	sign := 1.0
	if rng.Float64() < 0.5 {
		sign = -1
	}
	return &RuleBot{
		rng:        rng,
		StrafeSign: sign,
		Greed:      600 + rng.Float64()*900,
	}
}

func (r *RuleBot) Decide(v *BotView) BotAction {
	self, ok := v.Self()
	if !ok || self.Frozen {
		return BotAction{}
	}
	var act BotAction

	if target := r.throwTarget(self, v); target != nil && self.Snowballs > 0 && r.rng.Float64() < throwChance {
		pos := target.Pos()
		act.Throw = &pos
	}

	if dir, ok := r.evadeSnowball(self, v); ok {
		act.Move = r.addNoise(dir)
		return act
	}
	if gr := nearestGrinch(self, v); gr != nil && gr.Pos().Dist(self.Pos()) < botGrinchFear {
		act.Move = r.addNoise(self.Pos().Sub(gr.Pos()).Normalize())
		return act
	}

	gift := nearestGift(self, v)
	switch {
	case gift == nil || gift.Pos().Dist(self.Pos()) > r.Greed:
		// Nothing worth chasing: orbit the world center.
		to := Vec2{1500, 1000}.Sub(self.Pos()).Normalize()
		act.Move = r.addNoise(Vec2{-to.Y * r.StrafeSign, to.X * r.StrafeSign})
	case gift.Pos().Dist(self.Pos()) <= collectRadius:
		act.Collect = gift.ID
	default:
		act.Move = r.addNoise(gift.Pos().Sub(self.Pos()).Normalize())
	}
	return act
}

// evadeSnowball returns a sidestep from the closest snowball heading at self.
func (r *RuleBot) evadeSnowball(self *Player, v *BotView) (Vec2, bool) {
	var closest *Snowball
	closestDist := math.Inf(1)
	for _, sb := range v.Snowballs {
		if sb.OwnerID == self.ID || (sb.OwnerTeam != "" && sb.OwnerTeam == self.Team) {
			continue
		}
		toSelf := self.Pos().Sub(sb.Pos())
		d := toSelf.Len()
		if d > botDangerDist {
			continue
		}
		if toSelf.X*sb.VX+toSelf.Y*sb.VY <= 0 {
			continue
		}
		if d < closestDist {
			closest, closestDist = sb, d
		}
	}
	if closest == nil {
		return Vec2{}, false
	}
	vel := closest.Vel().Normalize()
	if vel.IsZero() {
		return Vec2{}, false
	}
	return Vec2{-vel.Y, vel.X}, true
}

func (r *RuleBot) throwTarget(self *Player, v *BotView) *Player {
	var best *Player
	bestDist := float64(botThrowRange)
	for _, p := range v.Players {
		if p.ID == self.ID || (self.Team != "" && p.Team == self.Team) {
			continue
		}
		if d := p.Pos().Dist(self.Pos()); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func nearestGift(self *Player, v *BotView) *Gift {
	var best *Gift
	bestDist := math.Inf(1)
	for _, g := range v.Gifts {
		if d := g.Pos().Dist(self.Pos()); d < bestDist {
			best, bestDist = g, d
		}
	}
	return best
}

func nearestGrinch(self *Player, v *BotView) *Grinch {
	var best *Grinch
	bestDist := math.Inf(1)
	for _, gr := range v.Grinches {
		if d := gr.Pos().Dist(self.Pos()); d < bestDist {
			best, bestDist = gr, d
		}
	}
	return best
}

// addNoise rotates dir by a random angle within botNoiseAngle.
func (r *RuleBot) addNoise(dir Vec2) Vec2 {
	noise := (r.rng.Float64()*2 - 1) * botNoiseAngle
	cos, sin := math.Cos(noise), math.Sin(noise)
	return Vec2{
		X: dir.X*cos - dir.Y*sin,
		Y: dir.X*sin + dir.Y*cos,
	}
}
