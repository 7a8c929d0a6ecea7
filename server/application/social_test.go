package application

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func chatTexts(t *testing.T, rec *recorder) []string {
	t.Helper()
	var out []string
	for _, f := range rec.ofType(EvChat) {
		out = append(out, decodeFrame[ChatEvent](t, f).Message.Text)
	}
	return out
}

func TestPlayerChat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "trimmed", text: "  merry christmas  ", want: "merry christmas"},
		{name: "clipped", text: strings.Repeat("ho", 150), want: strings.Repeat("ho", 100)},
		{name: "blank dropped", text: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec, clock := newTestGame(t)
			p := addPlayer(g, "alice", "red", Vec2{1000, 1000})

			g.playerChat(context.Background(), p, ChatRequest{Text: tt.text}, clock.Now())

			frames := rec.ofType(EvChat)
			if tt.want == "" {
				if len(frames) != 0 {
					t.Errorf("chat frames = %d, want 0", len(frames))
				}
				return
			}
			msg := only[ChatEvent](t, rec, EvChat).Message
			if msg.Text != tt.want || msg.PlayerID != "alice" || msg.Team != "red" || msg.Type != "player" {
				t.Errorf("message = %+v, want %q from alice", msg, tt.want)
			}
			if msg.ID == "" || msg.Timestamp != clock.Now().UnixMilli() {
				t.Errorf("message id=%q timestamp=%d", msg.ID, msg.Timestamp)
			}
		})
	}
}

func TestChatHistory(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()
	p := addPlayer(g, "alice", "", Vec2{1000, 1000})
	for i := range 120 {
		g.playerChat(ctx, p, ChatRequest{Text: fmt.Sprintf("msg %d", i)}, clock.Now())
	}

	if len(g.chat) != chatHistory {
		t.Fatalf("history = %d, want %d", len(g.chat), chatHistory)
	}
	if g.chat[0].Text != "msg 20" || g.chat[99].Text != "msg 119" {
		t.Errorf("history spans %q..%q, want msg 20..msg 119", g.chat[0].Text, g.chat[99].Text)
	}

	rec.reset()
	sid, _ := joinSession(t, g, "Bob")
	var welcome WelcomeEvent
	for _, f := range rec.frames {
		if f.typ == EvWelcome && f.to == sid {
			welcome = decodeFrame[WelcomeEvent](t, f)
		}
	}
	if len(welcome.Chat) != welcomeChat {
		t.Fatalf("welcome chat = %d, want %d", len(welcome.Chat), welcomeChat)
	}
	if welcome.Chat[0].Text != "msg 70" || welcome.Chat[49].Text != "msg 119" {
		t.Errorf("welcome chat spans %q..%q, want msg 70..msg 119", welcome.Chat[0].Text, welcome.Chat[49].Text)
	}
}

func TestEmote(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()
	p := addPlayer(g, "alice", "", Vec2{1000, 1000})

	g.emote(ctx, p, "👋", clock.Now())
	g.emote(ctx, p, "🎉", clock.Now().Add(999*time.Millisecond))
	g.emote(ctx, p, "🦄", clock.Now().Add(2*time.Second))
	g.emote(ctx, p, "🎉", clock.Now().Add(time.Second))

	frames := rec.ofType(EvPlayerEmote)
	if len(frames) != 2 {
		t.Fatalf("playerEmote frames = %d, want 2", len(frames))
	}
	first := decodeFrame[PlayerEmoteEvent](t, frames[0])
	second := decodeFrame[PlayerEmoteEvent](t, frames[1])
	if first.Emote != "👋" || second.Emote != "🎉" || first.X != 1000 {
		t.Errorf("emotes = %+v, %+v", first, second)
	}
}

func TestJoinTeam(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()
	p := addPlayer(g, "alice", "", Vec2{1000, 1000})

	g.joinTeam(ctx, p, "red", clock.Now())
	g.joinTeam(ctx, p, "red", clock.Now())
	g.joinTeam(ctx, p, "green", clock.Now())

	ev := only[PlayerTeamChangedEvent](t, rec, EvPlayerTeamChanged)
	if ev.PlayerID != "alice" || ev.TeamID != "red" {
		t.Errorf("playerTeamChanged = %+v", ev)
	}
	if texts := chatTexts(t, rec); len(texts) != 1 || texts[0] != "Alice joined Red Team!" {
		t.Errorf("chat = %q", texts)
	}

	g.joinTeam(ctx, p, "blue", clock.Now())
	red, _ := g.world.Team("red")
	blue, _ := g.world.Team("blue")
	if len(red.Members) != 0 || len(blue.Members) != 1 || blue.Members[0] != "alice" {
		t.Errorf("members red=%v blue=%v, want alice only on blue", red.Members, blue.Members)
	}
}

func TestCreateTeam(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()
	p := addPlayer(g, "alice", "red", Vec2{1000, 1000})

	g.createTeam(ctx, p, CreateTeamRequest{Name: "  Elves  ", Color: "#00ff00"}, clock.Now())

	team := only[TeamCreatedEvent](t, rec, EvTeamCreated).Team
	if len(team.ID) != 8 || team.Name != "Elves" || team.Color != "#00ff00" || team.Creator != "alice" {
		t.Errorf("team = %+v", team)
	}
	if team.Spawn == nil || team.Tree != nil {
		t.Errorf("spawn=%v tree=%v, want a spawn and no tree", team.Spawn, team.Tree)
	}
	if p.Team != team.ID {
		t.Errorf("alice on %q, want %q", p.Team, team.ID)
	}
	changed := only[PlayerTeamChangedEvent](t, rec, EvPlayerTeamChanged)
	if changed.TeamID != team.ID {
		t.Errorf("playerTeamChanged = %+v", changed)
	}
	red, _ := g.world.Team("red")
	if len(red.Members) != 0 {
		t.Errorf("red members = %v, want none", red.Members)
	}
}

func TestCreateTeam_DefaultName(t *testing.T) {
	g, rec, clock := newTestGame(t)
	p := addPlayer(g, "alice", "", Vec2{1000, 1000})

	g.createTeam(context.Background(), p, CreateTeamRequest{}, clock.Now())

	team := only[TeamCreatedEvent](t, rec, EvTeamCreated).Team
	if team.Name != "Team "+team.ID || team.Color == "" {
		t.Errorf("team = %+v, want a generated name and color", team)
	}
}

func TestSetMode(t *testing.T) {
	g, rec, _ := newTestGame(t)
	ctx := context.Background()

	g.setMode(ctx, "bogus")
	if g.mode != ModeCapture {
		t.Fatalf("mode = %q after bogus request", g.mode)
	}
	g.setMode(ctx, ModeTeams)

	ev := only[ModeChangedEvent](t, rec, EvModeChanged)
	if ev.Mode != ModeTeams || g.mode != ModeTeams {
		t.Errorf("mode event=%q game=%q, want %q", ev.Mode, g.mode, ModeTeams)
	}
}

func TestWeatherTick(t *testing.T) {
	g, rec, clock := newTestGame(t)
	ctx := context.Background()

	prev := g.weather
	changes := 0
	for range 40 {
		g.weatherTick(ctx, clock.Now())
		if g.weather != prev {
			changes++
			prev = g.weather
		}
	}

	frames := rec.ofType(EvWeatherChanged)
	if len(frames) != changes {
		t.Errorf("weatherChanged frames = %d, want %d", len(frames), changes)
	}
	last := WeatherClear
	for _, f := range frames {
		ev := decodeFrame[WeatherChangedEvent](t, f)
		if ev.Weather == last {
			t.Errorf("weatherChanged repeated %q", ev.Weather)
		}
		last = ev.Weather
	}
	if n := len(chatTexts(t, rec)); n != changes {
		t.Errorf("weather chat lines = %d, want %d", n, changes)
	}
}

func TestDayTick(t *testing.T) {
	g, rec, clock := newTestGame(t)
	for range 4 {
		g.dayTick(context.Background(), clock.Now())
	}

	var got []TimeOfDay
	for _, f := range rec.ofType(EvTimeChanged) {
		got = append(got, decodeFrame[TimeChangedEvent](t, f).TimeOfDay)
	}
	want := []TimeOfDay{TimeDusk, TimeNight, TimeDawn, TimeDay}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("cycle = %v, want %v", got, want)
	}
}
