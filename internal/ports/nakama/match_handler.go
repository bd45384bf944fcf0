package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"

	"blokus/internal/app"
	"blokus/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

const defaultTickRate = 5

// MatchState holds the runtime state of the match streaming one game.
// The game itself lives in storage; the match only caches the latest snapshot.
type MatchState struct {
	GameID    string                      `json:"game_id"`
	Tick      int64                       `json:"tick"`
	Seats     map[domain.Color]string     `json:"seats"` // color -> user id
	Presences map[string]runtime.Presence `json:"-"`     // user id -> presence for targeted messaging
	Snapshot  *app.Snapshot               `json:"-"`
	Deleted   bool                        `json:"deleted"`
}

// colorsOf returns the colors held by userID in turn order.
func (ms *MatchState) colorsOf(userID string) []domain.Color {
	var out []domain.Color
	for _, c := range domain.DefaultColors {
		if ms.Seats[c] == userID {
			out = append(out, c)
		}
	}
	return out
}

// senderColor picks the color a message acts for. A user holding several colors must name one.
func (ms *MatchState) senderColor(userID, claimed string) (domain.Color, error) {
	held := ms.colorsOf(userID)
	if len(held) == 0 {
		return 0, errors.New("sender holds no seat")
	}
	if claimed == "" {
		if len(held) > 1 {
			return 0, errors.New("color is required when holding several seats")
		}
		return held[0], nil
	}
	c, err := domain.ParseColor(claimed)
	if err != nil || !slices.Contains(held, c) {
		return 0, errors.New("sender does not hold that color")
	}
	return c, nil
}

type placeMessage struct {
	Color    string          `json:"color"`
	Piece    string          `json:"piece"`
	Rotation int             `json:"rotation"`
	Flipped  bool            `json:"flipped"`
	Anchor   json.RawMessage `json:"anchor"`
}

type skipMessage struct {
	Color string `json:"color"`
}

type matchHandler struct {
	svc      *app.Service
	tickRate int
}

func newMatchHandler(svc *app.Service, tickRate int) *matchHandler {
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	return &matchHandler{svc: svc, tickRate: tickRate}
}

// MatchInit loads the game named by the "game_id" param.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	gameID, _ := params["game_id"].(string)
	if gameID == "" {
		logger.Error("MatchInit: missing game_id param")
		return nil, 0, ""
	}

	snap, err := mh.svc.GetState(ctx, gameID)
	if err != nil {
		logger.Error("MatchInit: Failed to load game %s: %v", gameID, err)
		return nil, 0, ""
	}

	state := &MatchState{
		GameID:    gameID,
		Seats:     make(map[domain.Color]string),
		Presences: make(map[string]runtime.Presence),
		Snapshot:  snap,
	}
	label, err := matchLabel(gameID, snap)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: Streaming game %s.", gameID)
	return state, mh.tickRate, label
}

// MatchJoinAttempt seats players presenting a seat token (or a color when tokens are off).
// Joins without either are spectators.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if matchState.Deleted {
		return state, false, "game deleted"
	}

	token, claimed := metadata["seat_token"], metadata["color"]
	if token == "" && claimed == "" {
		return state, true, ""
	}

	color, err := mh.svc.ResolveSeat(matchState.GameID, token, claimed)
	if err != nil {
		logger.Warn("MatchJoinAttempt: User %s rejected: %v", presence.GetUserId(), err)
		return state, false, app.ErrorCode(err)
	}
	if holder, taken := matchState.Seats[color]; taken && holder != presence.GetUserId() {
		return state, false, "seat taken"
	}
	matchState.Seats[color] = presence.GetUserId()
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin: User %s joined holding %v.", p.GetUserId(), matchState.colorsOf(p.GetUserId()))
	}
	mh.sendSnapshot(matchState, dispatcher, logger, presences)
	return matchState
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
	}
	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match of game %s with no presences.", matchState.GameID)
		return nil
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	if matchState.Deleted {
		return nil
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpPlacePiece:
			mh.handlePlacePiece(ctx, matchState, dispatcher, logger, msg)
		case OpSkipTurn:
			mh.handleSkipTurn(ctx, matchState, dispatcher, logger, msg)
		case OpRequestSnapshot:
			if p, ok := matchState.Presences[msg.GetUserId()]; ok {
				mh.sendSnapshot(matchState, dispatcher, logger, []runtime.Presence{p})
			}
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return matchState
}

func (mh *matchHandler) handlePlacePiece(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request placeMessage
	if err := decodeMessage(msg.GetData(), &request); err != nil {
		logger.Warn("handlePlacePiece: Invalid message from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	color, err := state.senderColor(senderID, request.Color)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, errors.Join(app.ErrInvalidSeatToken, err))
		return
	}
	anchor, err := app.ParseAnchor(request.Anchor)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	snap, events, err := mh.svc.PlacePiece(ctx, state.GameID, app.PlaceInput{
		Color:    color,
		Piece:    domain.PieceKey(request.Piece),
		Rotation: request.Rotation,
		Flipped:  request.Flipped,
		Anchor:   anchor,
	})
	if err != nil {
		logger.Warn("handlePlacePiece: User %s (%s) failed to place %s: %v", senderID, color, request.Piece, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.applyUpdate(state, dispatcher, logger, snap, events)
}

func (mh *matchHandler) handleSkipTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request skipMessage
	if len(msg.GetData()) > 0 {
		if err := decodeMessage(msg.GetData(), &request); err != nil {
			mh.sendError(state, dispatcher, logger, senderID, err)
			return
		}
	}
	color, err := state.senderColor(senderID, request.Color)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, errors.Join(app.ErrInvalidSeatToken, err))
		return
	}

	snap, events, err := mh.svc.SkipTurn(ctx, state.GameID, color)
	if err != nil {
		logger.Warn("handleSkipTurn: User %s (%s) failed to pass: %v", senderID, color, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.applyUpdate(state, dispatcher, logger, snap, events)
}

// applyUpdate caches the new snapshot, then broadcasts the events, the snapshot and the label.
func (mh *matchHandler) applyUpdate(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snap *app.Snapshot, events []app.Event) {
	state.Snapshot = snap
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.sendSnapshot(state, dispatcher, logger, nil)
	mh.updateLabel(state, dispatcher, logger)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	switch ev.Kind {
	case app.EventPiecePlaced:
		opCode = OpPiecePlaced
	case app.EventTurnPassed:
		opCode = OpTurnPassed
	case app.EventGameFinished:
		opCode = OpGameFinished
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := encodeMessage(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, c := range ev.Recipients {
			if p, ok := state.Presences[state.Seats[c]]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendSnapshot sends the cached snapshot to presences, or to everyone when presences is nil.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	if state.Snapshot == nil {
		return
	}
	bytes, err := encodeMessage(state.Snapshot)
	if err != nil {
		logger.Error("Failed to marshal snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSnapshot, bytes, presences, nil, true)
}

// sendError sends an error payload to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	bytes, mErr := encodeMessage(newErrorPayload(err))
	if mErr != nil {
		logger.Error("Failed to marshal error payload: %v", mErr)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state.GameID, state.Snapshot)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with grace %d", graceSeconds)
	return state
}

// MatchSignal reacts to RPCs that changed the game: "refresh" reloads and broadcasts the
// snapshot, "deleted" notifies presences and ends the match on the next loop.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, "state not found"
	}

	switch data {
	case signalRefresh:
		snap, err := mh.svc.GetState(ctx, matchState.GameID)
		if err != nil {
			logger.Warn("MatchSignal: Failed to reload game %s: %v", matchState.GameID, err)
			return matchState, app.ErrorCode(err)
		}
		matchState.Snapshot = snap
		mh.sendSnapshot(matchState, dispatcher, logger, nil)
		mh.updateLabel(matchState, dispatcher, logger)
	case signalDeleted:
		matchState.Deleted = true
		bytes, err := encodeMessage(map[string]string{"game_id": matchState.GameID})
		if err == nil {
			dispatcher.BroadcastMessage(OpGameDeleted, bytes, nil, nil, true)
		}
	default:
		return matchState, "unknown signal"
	}
	return matchState, data
}
