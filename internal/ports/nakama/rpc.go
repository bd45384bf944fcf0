package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"blokus/internal/app"
	"blokus/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used for runtime errors.
const (
	codeInvalidArgument = 3
	codeNotFound        = 5
	codeAborted         = 10
	codeInternal        = 13
)

type createGameRequest struct {
	Colors    []string `json:"colors"`
	Names     []string `json:"names"`
	BoardSize int      `json:"board_size"`
}

type createGameResponse struct {
	Game       *app.Snapshot     `json:"game"`
	SeatTokens map[string]string `json:"seat_tokens,omitempty"`
}

type gameRequest struct {
	GameID string `json:"game_id"`
}

type placePieceRequest struct {
	GameID    string          `json:"game_id"`
	SeatToken string          `json:"seat_token"`
	Color     string          `json:"color"`
	Piece     string          `json:"piece"`
	Rotation  int             `json:"rotation"`
	Flipped   bool            `json:"flipped"`
	Anchor    json.RawMessage `json:"anchor"`
}

type skipTurnRequest struct {
	GameID    string `json:"game_id"`
	SeatToken string `json:"seat_token"`
	Color     string `json:"color"`
}

type gameResponse struct {
	Game *app.Snapshot `json:"game"`
}

type listPiecesResponse struct {
	Pieces []domain.PieceInfo `json:"pieces"`
}

type deleteGameResponse struct {
	Deleted bool `json:"deleted"`
}

// OpenMatchResponse is returned to clients asking for the live match of a game.
type OpenMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// rpcHandlers exposes the game service as Nakama RPCs.
type rpcHandlers struct {
	svc *app.Service
}

// RegisterRPCs registers every game RPC with Nakama.
func RegisterRPCs(initializer runtime.Initializer, svc *app.Service) error {
	h := &rpcHandlers{svc: svc}
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateGame:    h.createGame,
		RpcGetGameState:  h.getGameState,
		RpcPlacePiece:    h.placePiece,
		RpcSkipTurn:      h.skipTurn,
		RpcListPieces:    h.listPieces,
		RpcDeleteGame:    h.deleteGame,
		RpcOpenGameMatch: h.openGameMatch,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("register rpc %s: %w", id, err)
		}
	}
	return nil
}

func (h *rpcHandlers) createGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req createGameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	colors := make([]domain.Color, 0, len(req.Colors))
	for _, name := range req.Colors {
		c, err := domain.ParseColor(name)
		if err != nil {
			return "", toRuntimeError(logger, fmt.Errorf("%w: %w", app.ErrInvalidGame, err))
		}
		colors = append(colors, c)
	}

	snap, tokens, _, err := h.svc.CreateGame(ctx, app.CreateGameInput{Colors: colors, Names: req.Names, BoardSize: req.BoardSize})
	if err != nil {
		return "", toRuntimeError(logger, err)
	}

	resp := createGameResponse{Game: snap}
	if tokens != nil {
		resp.SeatTokens = make(map[string]string, len(tokens))
		for c, token := range tokens {
			resp.SeatTokens[c.String()] = token
		}
	}
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	logger.WithFields(map[string]interface{}{"game_id": snap.GameID, "user_id": userID}).Info("Game created with %d players", len(snap.Players))
	return encodeResponse(resp)
}

func (h *rpcHandlers) getGameState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req gameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	snap, err := h.svc.GetState(ctx, req.GameID)
	if err != nil {
		return "", toRuntimeError(logger, err)
	}
	return encodeResponse(gameResponse{Game: snap})
}

func (h *rpcHandlers) placePiece(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req placePieceRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	color, err := h.svc.ResolveSeat(req.GameID, req.SeatToken, req.Color)
	if err != nil {
		return "", toRuntimeError(logger, err)
	}
	anchor, err := app.ParseAnchor(req.Anchor)
	if err != nil {
		return "", toRuntimeError(logger, err)
	}

	snap, _, err := h.svc.PlacePiece(ctx, req.GameID, app.PlaceInput{
		Color:    color,
		Piece:    domain.PieceKey(req.Piece),
		Rotation: req.Rotation,
		Flipped:  req.Flipped,
		Anchor:   anchor,
	})
	if err != nil {
		return "", toRuntimeError(logger, err)
	}
	signalMatches(ctx, logger, nk, req.GameID, signalRefresh)
	return encodeResponse(gameResponse{Game: snap})
}

func (h *rpcHandlers) skipTurn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req skipTurnRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	color, err := h.svc.ResolveSeat(req.GameID, req.SeatToken, req.Color)
	if err != nil {
		return "", toRuntimeError(logger, err)
	}

	snap, _, err := h.svc.SkipTurn(ctx, req.GameID, color)
	if err != nil {
		return "", toRuntimeError(logger, err)
	}
	signalMatches(ctx, logger, nk, req.GameID, signalRefresh)
	return encodeResponse(gameResponse{Game: snap})
}

func (h *rpcHandlers) listPieces(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return encodeResponse(listPiecesResponse{Pieces: h.svc.Pieces()})
}

func (h *rpcHandlers) deleteGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req gameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	if err := h.svc.DeleteGame(ctx, req.GameID); err != nil {
		return "", toRuntimeError(logger, err)
	}
	signalMatches(ctx, logger, nk, req.GameID, signalDeleted)
	logger.WithField("game_id", req.GameID).Info("Game deleted")
	return encodeResponse(deleteGameResponse{Deleted: true})
}

// openGameMatch returns the authoritative match streaming a game, creating it on first use.
func (h *rpcHandlers) openGameMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req gameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", toRuntimeError(logger, err)
	}
	if _, err := h.svc.GetState(ctx, req.GameID); err != nil {
		return "", toRuntimeError(logger, err)
	}

	matches, err := nk.MatchList(ctx, 1, true, "", nil, nil, gameLabelQuery(req.GameID))
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("internal error", codeInternal)
	}
	if len(matches) > 0 {
		return encodeResponse(OpenMatchResponse{MatchID: matches[0].GetMatchId()})
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameBlokus, map[string]interface{}{"game_id": req.GameID})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", runtime.NewError("internal error", codeInternal)
	}
	return encodeResponse(OpenMatchResponse{MatchID: matchID, IsNew: true})
}

// signalMatches tells the live matches of a game that it changed outside their loop.
func signalMatches(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, gameID, signal string) {
	matches, err := nk.MatchList(ctx, 10, true, "", nil, nil, gameLabelQuery(gameID))
	if err != nil {
		logger.Warn("signalMatches: MatchList failed for game %s: %v", gameID, err)
		return
	}
	for _, m := range matches {
		if _, err := nk.MatchSignal(ctx, m.GetMatchId(), signal); err != nil {
			logger.Warn("signalMatches: signal %s to match %s failed: %v", signal, m.GetMatchId(), err)
		}
	}
}

func gameLabelQuery(gameID string) string {
	return fmt.Sprintf("+label.game_id:%q", gameID)
}

func decodePayload(payload string, v interface{}) error {
	if payload == "" {
		payload = "{}"
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	return nil
}

func encodeResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("internal error", codeInternal)
	}
	return string(b), nil
}

// toRuntimeError maps service errors to Nakama errors. The message is a JSON errorPayload.
func toRuntimeError(logger runtime.Logger, err error) error {
	payload := newErrorPayload(err)
	code := codeInvalidArgument
	switch payload.Code {
	case app.CodeGameNotFound:
		code = codeNotFound
	case app.CodeConflict:
		code = codeAborted
	case app.CodeInternal:
		code = codeInternal
		logger.Error("RPC failed: %v", err)
	}
	msg, _ := json.Marshal(payload)
	return runtime.NewError(string(msg), code)
}
