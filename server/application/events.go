package application

// Inbound message types.
const (
	MsgJoin           = "join"
	MsgMove           = "move"
	MsgChat           = "chat"
	MsgCollect        = "collect"
	MsgCollectPowerup = "collectPowerup"
	MsgThrowSnowball  = "throwSnowball"
	MsgEmote          = "emote"
	MsgJoinTeam       = "joinTeam"
	MsgCreateTeam     = "createTeam"
	MsgSetMode        = "setMode"
)

// Outbound event types.
const (
	EvWelcome              = "welcome"
	EvPlayerJoined         = "playerJoined"
	EvPlayerLeft           = "playerLeft"
	EvPlayerMoved          = "playerMoved"
	EvGiftSpawned          = "giftSpawned"
	EvGiftsMoved           = "giftsMoved"
	EvGiftCollected        = "giftCollected"
	EvPowerupSpawned       = "powerupSpawned"
	EvPowerupCollected     = "powerupCollected"
	EvGrinchSpawned        = "grinchSpawned"
	EvGrinchMoved          = "grinchMoved"
	EvGrinchStole          = "grinchStole"
	EvGrinchHit            = "grinchHit"
	EvSnowballThrown       = "snowballThrown"
	EvSnowballRemoved      = "snowballRemoved"
	EvSnowballHit          = "snowballHit"
	EvSnowballSplat        = "snowballSplat"
	EvTurretShot           = "turretShot"
	EvPlayerFellThroughIce = "playerFellThroughIce"
	EvPlayerEmote          = "playerEmote"
	EvWeatherChanged       = "weatherChanged"
	EvTimeChanged          = "timeChanged"
	EvChat                 = "chat"
	EvPlayerTeamChanged    = "playerTeamChanged"
	EvTeamCreated          = "teamCreated"
	EvModeChanged          = "modeChanged"
	EvRoundStart           = "roundStart"
	EvRoundTimer           = "roundTimer"
	EvRoundEnd             = "roundEnd"
	EvTreeCapture          = "treeCapture"
)

type JoinRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// MoveRequest carries a direction; each axis is expected in [-1,1].
type MoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type CollectRequest struct {
	GiftID string `json:"giftId"`
}

type CollectPowerupRequest struct {
	PowerupID string `json:"powerupId"`
}

type ThrowSnowballRequest struct {
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
}

type EmoteRequest struct {
	Emote string `json:"emote"`
}

type JoinTeamRequest struct {
	TeamID string `json:"teamId"`
}

type CreateTeamRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type SetModeRequest struct {
	Mode string `json:"mode"`
}

// WelcomeEvent is the full state sent to a player right after joining.
type WelcomeEvent struct {
	PlayerID     string                 `json:"playerId"`
	Player       *Player                `json:"player"`
	LevelID      string                 `json:"levelId"`
	LevelName    string                 `json:"levelName"`
	WorldSize    Bounds                 `json:"worldSize"`
	Players      []*Player              `json:"players"`
	Gifts        []*Gift                `json:"gifts"`
	Powerups     []*Powerup             `json:"powerups"`
	Obstacles    []*Obstacle            `json:"obstacles"`
	Grinches     []*Grinch              `json:"grinches"`
	Snowballs    []*Snowball            `json:"snowballs"`
	Teams        []*Team                `json:"teams"`
	Chat         []ChatMessage          `json:"chat"`
	GameMode     string                 `json:"gameMode"`
	Levels       []ProgressLevel        `json:"levels"`
	PowerupTypes map[string]PowerupInfo `json:"powerupTypes"`
	Weather      Weather                `json:"weather"`
	TimeOfDay    TimeOfDay              `json:"timeOfDay"`
	Emotes       []string               `json:"emotes"`
	RoundActive  bool                   `json:"roundActive"`
	RoundEndTime int64                  `json:"roundEndTime,omitempty"`
}

type PlayerEvent struct {
	Player *Player `json:"player"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
}

type PlayerMovedEvent struct {
	PlayerID    string  `json:"playerId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	OnIce       bool    `json:"onIce"`
	InSnowdrift bool    `json:"inSnowdrift"`
	OnDangerIce bool    `json:"onDangerIce"`
	Frozen      bool    `json:"frozen"`
}

type GiftSpawnedEvent struct {
	Gift *Gift `json:"gift"`
}

type GiftPosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type GiftsMovedEvent struct {
	Gifts []GiftPosition `json:"gifts"`
}

type GiftCollectedEvent struct {
	GiftID         string `json:"giftId"`
	PlayerID       string `json:"playerId"`
	Points         int    `json:"points"`
	PlayerScore    int    `json:"playerScore"`
	GiftsCollected int    `json:"giftsCollected"`
	Level          int    `json:"level"`
	LeveledUp      bool   `json:"leveledUp"`
	Snowballs      int    `json:"snowballs"`
}

type PowerupSpawnedEvent struct {
	Powerup *Powerup `json:"powerup"`
}

type PowerupCollectedEvent struct {
	PowerupID      string                `json:"powerupId"`
	PlayerID       string                `json:"playerId"`
	PowerupType    PowerupKind           `json:"powerupType"`
	X              float64               `json:"x"`
	Y              float64               `json:"y"`
	PlayerPowerups map[PowerupKind]int64 `json:"playerPowerups"`
}

type GrinchSpawnedEvent struct {
	Grinch *Grinch `json:"grinch"`
}

type GrinchMovedEvent struct {
	GrinchID string  `json:"grinchId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type GrinchStoleEvent struct {
	GrinchID     string `json:"grinchId"`
	PlayerID     string `json:"playerId"`
	StolenPoints int    `json:"stolenPoints"`
	PlayerScore  int    `json:"playerScore"`
}

type GrinchHitEvent struct {
	GrinchID   string  `json:"grinchId"`
	SnowballID string  `json:"snowballId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type SnowballThrownEvent struct {
	Snowball         *Snowball `json:"snowball"`
	ThrowerSnowballs int       `json:"throwerSnowballs"`
}

// Removal reasons carried by snowballRemoved.
const (
	RemovedExpired     = "expired"
	RemovedOutOfBounds = "outOfBounds"
	RemovedBlocked     = "blocked"
	RemovedGrinch      = "grinch"
)

type SnowballRemovedEvent struct {
	SnowballID string `json:"snowballId"`
	Reason     string `json:"reason"`
}

type SnowballSplatEvent struct {
	SnowballID string  `json:"snowballId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	ObstacleID string  `json:"obstacleId"`
}

type SnowballHitEvent struct {
	SnowballID    string  `json:"snowballId"`
	HitPlayerID   string  `json:"hitPlayerId"`
	ThrownBy      string  `json:"thrownBy"`
	Hits          int     `json:"hits"`
	HitsToRespawn int     `json:"hitsToRespawn"`
	Respawned     bool    `json:"respawned"`
	PlayerX       float64 `json:"playerX"`
	PlayerY       float64 `json:"playerY"`
	FrozenUntil   int64   `json:"frozenUntil"`
}

type TurretShotEvent struct {
	TurretID string    `json:"turretId"`
	Snowball *Snowball `json:"snowball"`
}

type FellThroughIceEvent struct {
	PlayerID   string  `json:"playerId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	LostPoints int     `json:"lostPoints"`
	Score      int     `json:"score"`
}

type PlayerEmoteEvent struct {
	PlayerID string  `json:"playerId"`
	Emote    string  `json:"emote"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type WeatherChangedEvent struct {
	Weather Weather `json:"weather"`
}

type TimeChangedEvent struct {
	TimeOfDay TimeOfDay `json:"timeOfDay"`
}

type ChatEvent struct {
	Message ChatMessage `json:"message"`
}

type PlayerTeamChangedEvent struct {
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
}

type TeamCreatedEvent struct {
	Team *Team `json:"team"`
}

type ModeChangedEvent struct {
	Mode string `json:"mode"`
}

type RoundStartEvent struct {
	RoundEndTime  int64      `json:"roundEndTime"`
	RoundDuration int64      `json:"roundDuration"`
	Players       []*Player  `json:"players"`
	Gifts         []*Gift    `json:"gifts"`
	Powerups      []*Powerup `json:"powerups"`
	Teams         []*Team    `json:"teams"`
}

type RoundTimerEvent struct {
	RoundEndTime int64 `json:"roundEndTime"`
	Remaining    int64 `json:"remaining"`
}

// Round end reasons.
const (
	EndCapture = "capture"
	EndGifts   = "gifts"
	EndTie     = "tie"
)

type TeamTally struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Gifts  int    `json:"gifts"`
}

type RoundEndEvent struct {
	Reason     string      `json:"reason"`
	Winner     string      `json:"winner,omitempty"`
	WinnerName string      `json:"winnerName,omitempty"`
	CapturedBy string      `json:"capturedBy,omitempty"`
	Gifts      []TeamTally `json:"gifts"`
	Teams      []*Team     `json:"teams"`
}

type TreeCaptureEvent struct {
	PlayerID     string  `json:"playerId"`
	PlayerName   string  `json:"playerName"`
	Team         string  `json:"team"`
	CapturedTeam string  `json:"capturedTeam"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}
