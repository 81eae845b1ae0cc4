package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/match/queue"
	"github.com/codeduel/platform/internal/match/settlement"
	"github.com/codeduel/platform/internal/problem"
	"github.com/codeduel/platform/internal/profile"
	ws "github.com/codeduel/platform/pkg/http/ws"
)

// ProfileSource loads the current standing of a player.
type ProfileSource interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

// ProblemSampler picks a problem id for a difficulty; it never fails.
type ProblemSampler interface {
	SampleByDifficulty(ctx context.Context, d problem.Difficulty) string
}

// Settler applies a match outcome to both profiles.
type Settler interface {
	Settle(ctx context.Context, winnerID, loserID uuid.UUID, t settlement.Type) (*settlement.Result, error)
}

// Notifier delivers an event to one connection.
type Notifier interface {
	Send(connID, msgType string, payload interface{}) error
}

// EngineOptions tunes background work.
type EngineOptions struct {
	SettlementTimeout time.Duration
}

// Engine is the single owner of the matchmaking queues, the room table and
// the connection index. Every mutation happens under mu and no I/O is done
// while it is held.
type Engine struct {
	mu    sync.Mutex
	queue *queue.Manager
	rooms *RoomRegistry

	profiles ProfileSource
	problems ProblemSampler
	settler  Settler
	notifier Notifier
	metrics  *Metrics
	logger   zerolog.Logger
	opts     EngineOptions

	background       sync.WaitGroup
	now              func() time.Time
	randomDifficulty func() problem.Difficulty
}

// NewEngine wires an engine. metrics may be nil.
func NewEngine(profiles ProfileSource, problems ProblemSampler, settler Settler, notifier Notifier, metrics *Metrics, opts EngineOptions, logger zerolog.Logger) *Engine {
	if opts.SettlementTimeout <= 0 {
		opts.SettlementTimeout = 10 * time.Second
	}
	return &Engine{
		queue:    queue.NewManager(),
		rooms:    NewRoomRegistry(),
		profiles: profiles,
		problems: problems,
		settler:  settler,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With().Str("component", "match_engine").Logger(),
		opts:     opts,
		now:      time.Now,
		randomDifficulty: func() problem.Difficulty {
			return problem.Difficulties[rand.IntN(len(problem.Difficulties))]
		},
	}
}

// DifficultyFor maps the average ranked points of a pair to a difficulty.
func DifficultyFor(averagePoints int) problem.Difficulty {
	switch {
	case averagePoints >= 2200:
		return problem.Hard
	case averagePoints >= 1400:
		return problem.Medium
	default:
		return problem.Easy
	}
}

// FindMatch pairs the session with a waiting opponent or queues it.
// A user who is already searching, or a connection still playing an active
// match, is ignored. A lobby the connection was hosting is closed.
func (e *Engine) FindMatch(ctx context.Context, s Session, rawMode string) error {
	mode, ok := queue.ParseMode(rawMode)
	if !ok {
		return ErrInvalidMode
	}

	e.mu.Lock()
	searching := e.queue.Contains(s.UserID)
	e.mu.Unlock()
	if searching {
		return nil
	}

	p, err := e.profiles.GetOrCreate(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	me := queue.SearchingParticipant{
		ConnID:   s.ConnID,
		UserID:   s.UserID,
		Username: p.Username,
		Rank:     p.Stats.Rank,
		Points:   p.Stats.RankedPoints,
		QueuedAt: e.now(),
	}
	if mode == queue.Casual {
		me.Points = p.Stats.Points
	}

	e.mu.Lock()
	if e.queue.Contains(s.UserID) || !e.release(s.ConnID) {
		e.mu.Unlock()
		return nil
	}
	opponent := e.queue.TakeOpponent(me, mode)
	if opponent == nil {
		e.queue.Enqueue(me, mode)
		e.metrics.observeState(e.queue, e.rooms)
		e.mu.Unlock()

		e.logger.Info().Str("user_id", s.UserID.String()).Str("mode", string(mode)).Msg("player queued")
		return e.notifier.Send(s.ConnID, ws.TypeWaiting, ws.WaitingPayload{
			Message: fmt.Sprintf("Searching for a %s opponent...", me.Rank.Tier),
			Tier:    string(me.Rank.Tier),
		})
	}
	room := e.rooms.OpenMatch(fromSearching(*opponent), fromSearching(me), mode == queue.Ranked)
	roomID := room.ID
	e.metrics.matchCreated(string(mode))
	e.metrics.observeState(e.queue, e.rooms)
	e.mu.Unlock()

	d := e.randomDifficulty()
	if mode == queue.Ranked {
		d = DifficultyFor((opponent.Points + me.Points) / 2)
	}
	e.start(ctx, roomID, d)
	return nil
}

// CancelSearch withdraws every queue entry of the connection.
func (e *Engine) CancelSearch(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.RemoveConnection(connID) > 0 {
		e.metrics.observeState(e.queue, e.rooms)
	}
}

// CreateLobby opens a private waiting room and returns its code. The
// connection leaves the queues and any lobby it was hosting. A connection
// still playing an active match is ignored and gets an empty code.
func (e *Engine) CreateLobby(ctx context.Context, s Session) (string, error) {
	p, err := e.profiles.GetOrCreate(ctx, s.UserID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	e.mu.Lock()
	if !e.release(s.ConnID) {
		e.mu.Unlock()
		return "", nil
	}
	e.queue.RemoveConnection(s.ConnID)
	room := e.rooms.OpenLobby(participantOf(s, p))
	roomID := room.ID
	e.metrics.observeState(e.queue, e.rooms)
	e.mu.Unlock()

	e.logger.Info().Str("room_id", roomID).Str("user_id", s.UserID.String()).Msg("private lobby created")
	return roomID, e.notifier.Send(s.ConnID, ws.TypeLobbyCreated, ws.LobbyCreatedPayload{RoomID: roomID})
}

// JoinLobby seats the session in a waiting lobby and starts the match.
// Joining a waiting lobby the user already sits in is ignored, as is a join
// from a connection still playing an active match.
func (e *Engine) JoinLobby(ctx context.Context, s Session, roomID string) error {
	p, err := e.profiles.GetOrCreate(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	e.mu.Lock()
	room, ok := e.rooms.Get(roomID)
	switch {
	case !ok:
		e.mu.Unlock()
		return ErrRoomNotFound
	case room.Status != RoomStatusWaiting:
		e.mu.Unlock()
		return ErrRoomNotWaiting
	case room.hasUser(s.UserID), !e.release(s.ConnID):
		e.mu.Unlock()
		return nil
	}
	e.queue.RemoveConnection(s.ConnID)
	e.rooms.Seat(room, participantOf(s, p))
	e.metrics.matchCreated("lobby")
	e.metrics.observeState(e.queue, e.rooms)
	e.mu.Unlock()

	e.start(ctx, roomID, e.randomDifficulty())
	return nil
}

// start assigns a problem to a freshly active room and announces it.
func (e *Engine) start(ctx context.Context, roomID string, d problem.Difficulty) {
	problemID := e.problems.SampleByDifficulty(ctx, d)

	e.mu.Lock()
	room, ok := e.rooms.Get(roomID)
	if !ok || room.Status != RoomStatusActive {
		e.mu.Unlock()
		e.logger.Info().Str("room_id", roomID).Msg("room closed before the match started")
		return
	}
	room.ProblemID = problemID
	snap := room.snapshot()
	e.mu.Unlock()

	payload := ws.MatchFoundPayload{
		RoomID:    snap.ID,
		ProblemID: snap.ProblemID,
		IsRanked:  snap.Ranked,
		Players:   make([]ws.Player, len(snap.Participants)),
	}
	for i, p := range snap.Participants {
		payload.Players[i] = ws.Player{ID: p.UserID.String(), Username: p.Username, Rank: p.Rank.String(), Points: p.Points}
	}

	e.logger.Info().
		Str("room_id", snap.ID).
		Str("problem_id", snap.ProblemID).
		Str("difficulty", string(d)).
		Bool("ranked", snap.Ranked).
		Msg("match started")
	e.broadcast(snap, "", ws.TypeMatchFound, payload)
}

// ReportWin finishes an active room and settles it. Reports for rooms that
// are missing or not active, and reports naming a non-participant, are ignored.
func (e *Engine) ReportWin(ctx context.Context, roomID string, winnerID uuid.UUID) error {
	e.mu.Lock()
	room, ok := e.rooms.Get(roomID)
	if !ok || room.Status != RoomStatusActive || !room.hasUser(winnerID) {
		e.mu.Unlock()
		return nil
	}
	room.Status = RoomStatusFinished
	room.WinnerID = winnerID
	snap := room.snapshot()
	e.mu.Unlock()

	loser := snap.Participants[1-snap.indexOfUser(winnerID)]
	t := settlementType(snap.Ranked)

	ctx, cancel := context.WithTimeout(ctx, e.opts.SettlementTimeout)
	defer cancel()
	res, err := e.settler.Settle(ctx, winnerID, loser.UserID, t)
	e.metrics.settled(t, err)

	if err != nil {
		// The room stays finished so repeated reports are ignored; it is
		// dropped once both connections are gone.
		e.logger.Error().Err(err).Str("room_id", roomID).Msg("settlement failed")
		return nil
	}

	e.mu.Lock()
	e.rooms.Delete(roomID)
	e.metrics.observeState(e.queue, e.rooms)
	e.mu.Unlock()

	e.broadcast(snap, "", ws.TypeMatchOver, ws.MatchOverPayload{
		WinnerID:    winnerID.String(),
		IsRanked:    snap.Ranked,
		ProblemID:   snap.ProblemID,
		WinDetails:  details(res.Winner),
		LoseDetails: details(res.Loser),
	})
	return nil
}

// RelayMessage forwards a chat line to every other participant of the room.
func (e *Engine) RelayMessage(s Session, roomID, message, username string) {
	e.mu.Lock()
	room, ok := e.rooms.Get(roomID)
	if !ok || room.indexOfConn(s.ConnID) < 0 {
		e.mu.Unlock()
		return
	}
	snap := room.snapshot()
	e.mu.Unlock()

	if username == "" {
		username = s.Username
	}
	e.broadcast(snap, s.ConnID, ws.TypeReceiveMessage, ws.ReceiveMessagePayload{
		Message:   message,
		Username:  username,
		Timestamp: e.now().UTC().Format(time.RFC3339),
	})
}

// Disconnect withdraws the connection from the queues and closes out its room.
// An active match is awarded to the survivor; ranked ones are settled in the
// background with the leaver as loser.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	e.queue.RemoveConnection(connID)
	room, ok := e.rooms.ByConn(connID)
	if !ok {
		e.metrics.observeState(e.queue, e.rooms)
		e.mu.Unlock()
		return
	}

	var (
		snap  Room
		award bool
	)
	switch room.Status {
	case RoomStatusWaiting:
		e.rooms.Delete(room.ID)
	case RoomStatusActive:
		leaver := room.indexOfConn(connID)
		room.Status = RoomStatusFinished
		room.WinnerID = room.Participants[1-leaver].UserID
		snap = room.snapshot()
		award = true
		e.rooms.Delete(room.ID)
	case RoomStatusFinished:
		e.rooms.Detach(connID)
		if e.rooms.Attached(room) == 0 {
			e.rooms.Delete(room.ID)
		}
	}
	e.rooms.Detach(connID)
	e.metrics.observeState(e.queue, e.rooms)
	e.mu.Unlock()

	if !award {
		return
	}

	leaver := snap.Participants[snap.indexOfConn(connID)]
	survivor := snap.Participants[snap.indexOfUser(snap.WinnerID)]
	e.logger.Info().
		Str("room_id", snap.ID).
		Str("leaver_id", leaver.UserID.String()).
		Bool("ranked", snap.Ranked).
		Msg("player left an active match")

	if err := e.notifier.Send(survivor.ConnID, ws.TypeUserDisconnected, ws.UserDisconnectedPayload{
		Message: "Your opponent disconnected. You win by default!",
	}); err != nil {
		e.logger.Debug().Err(err).Str("conn_id", survivor.ConnID).Msg("survivor notification failed")
	}

	if !snap.Ranked {
		return
	}
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.SettlementTimeout)
		defer cancel()
		_, err := e.settler.Settle(ctx, survivor.UserID, leaver.UserID, settlement.Ranked)
		e.metrics.settled(settlement.Ranked, err)
		if err != nil {
			e.logger.Error().Err(err).Str("room_id", snap.ID).Msg("disconnect settlement failed")
		}
	}()
}

// Wait blocks until background settlements have finished or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release detaches the connection from the room it is indexed under so it can
// enter a new one. A waiting lobby is closed and a finished room is left
// behind. It reports false when the room is an active match. Callers hold mu.
func (e *Engine) release(connID string) bool {
	room, ok := e.rooms.ByConn(connID)
	if !ok {
		return true
	}
	switch room.Status {
	case RoomStatusActive:
		return false
	case RoomStatusWaiting:
		e.rooms.Delete(room.ID)
	case RoomStatusFinished:
		e.rooms.Detach(connID)
		if e.rooms.Attached(room) == 0 {
			e.rooms.Delete(room.ID)
		}
	}
	return true
}

func (e *Engine) broadcast(room Room, exceptConn, msgType string, payload interface{}) {
	for _, p := range room.Participants {
		if p.ConnID == exceptConn {
			continue
		}
		if err := e.notifier.Send(p.ConnID, msgType, payload); err != nil && !errors.Is(err, ws.ErrConnectionNotFound) {
			e.logger.Warn().Err(err).Str("conn_id", p.ConnID).Str("type", msgType).Msg("send failed")
		}
	}
}

func fromSearching(p queue.SearchingParticipant) Participant {
	return Participant{ConnID: p.ConnID, UserID: p.UserID, Username: p.Username, Rank: p.Rank, Points: p.Points}
}

func participantOf(s Session, p *profile.Profile) Participant {
	return Participant{
		ConnID:   s.ConnID,
		UserID:   s.UserID,
		Username: p.Username,
		Rank:     p.Stats.Rank,
		Points:   p.Stats.RankedPoints,
	}
}

func settlementType(ranked bool) settlement.Type {
	if ranked {
		return settlement.Ranked
	}
	return settlement.Casual
}

func details(s settlement.Side) *ws.ResultDetails {
	return &ws.ResultDetails{
		UserID:       s.UserID.String(),
		PointsChange: s.PointsChange,
		NewPoints:    s.NewPoints,
		NewRank:      s.NewRank.String(),
	}
}
