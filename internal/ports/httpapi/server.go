// Package httpapi serves the game service as JSON over HTTP, with a websocket feed per game.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"blokus/internal/app"
	"blokus/internal/domain"
	"blokus/internal/ports/ws"

	"github.com/heroiclabs/nakama-common/runtime"
)

const maxBodyBytes = 1 << 16

type createGameRequest struct {
	Colors    []string `json:"colors"`
	Names     []string `json:"names"`
	BoardSize int      `json:"board_size"`
}

type createGameResponse struct {
	Game       *app.Snapshot     `json:"game"`
	SeatTokens map[string]string `json:"seat_tokens,omitempty"`
}

type placeRequest struct {
	Color    string          `json:"color"`
	Piece    string          `json:"piece"`
	Rotation int             `json:"rotation"`
	Flipped  bool            `json:"flipped"`
	Anchor   json.RawMessage `json:"anchor"`
}

type skipRequest struct {
	Color string `json:"color"`
}

type gameResponse struct {
	Game *app.Snapshot `json:"game"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes HTTP requests to the game service and publishes accepted moves to the hub.
type Server struct {
	svc    *app.Service
	hub    *ws.Hub
	logger runtime.Logger
}

func NewServer(svc *app.Service, hub *ws.Hub, logger runtime.Logger) *Server {
	return &Server{svc: svc, hub: hub, logger: logger}
}

// Routes returns the mux serving every endpoint.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.createGame)
	mux.HandleFunc("GET /games/{id}", s.getGame)
	mux.HandleFunc("DELETE /games/{id}", s.deleteGame)
	mux.HandleFunc("POST /games/{id}/moves", s.placePiece)
	mux.HandleFunc("POST /games/{id}/pass", s.skipTurn)
	mux.HandleFunc("GET /games/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
		s.hub.ServeWS(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /pieces", s.listPieces)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	colors := make([]domain.Color, 0, len(req.Colors))
	for _, name := range req.Colors {
		c, err := domain.ParseColor(name)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %w", app.ErrInvalidGame, err))
			return
		}
		colors = append(colors, c)
	}

	snap, tokens, _, err := s.svc.CreateGame(r.Context(), app.CreateGameInput{Colors: colors, Names: req.Names, BoardSize: req.BoardSize})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := createGameResponse{Game: snap}
	if tokens != nil {
		resp.SeatTokens = make(map[string]string, len(tokens))
		for c, token := range tokens {
			resp.SeatTokens[c.String()] = token
		}
	}
	s.logger.WithField("game_id", snap.GameID).Info("game created with %d players", len(snap.Players))
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.GetState(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{Game: snap})
}

func (s *Server) placePiece(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req placeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	color, err := s.svc.ResolveSeat(gameID, seatToken(r), req.Color)
	if err != nil {
		s.writeError(w, err)
		return
	}
	anchor, err := app.ParseAnchor(req.Anchor)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, events, err := s.svc.PlacePiece(r.Context(), gameID, app.PlaceInput{
		Color:    color,
		Piece:    domain.PieceKey(req.Piece),
		Rotation: req.Rotation,
		Flipped:  req.Flipped,
		Anchor:   anchor,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Publish(snap, events)
	writeJSON(w, http.StatusOK, gameResponse{Game: snap})
}

func (s *Server) skipTurn(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req skipRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	color, err := s.svc.ResolveSeat(gameID, seatToken(r), req.Color)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, events, err := s.svc.SkipTurn(r.Context(), gameID, color)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Publish(snap, events)
	writeJSON(w, http.StatusOK, gameResponse{Game: snap})
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if err := s.svc.DeleteGame(r.Context(), gameID); err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.CloseGame(gameID)
	s.logger.WithField("game_id", gameID).Info("game deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPieces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"pieces": s.svc.Pieces()})
}

// seatToken reads the bearer token of the request.
func seatToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	return nil
}

// statusFor maps an error code to its HTTP status. Rule rejections are conflicts with the game state.
func statusFor(err error) int {
	switch app.ErrorCode(err) {
	case app.CodeGameNotFound:
		return http.StatusNotFound
	case app.CodeInvalidSeatToken:
		return http.StatusForbidden
	case app.CodeInvalidGame, app.CodeInvalidRequest:
		return http.StatusBadRequest
	case app.CodeConflict:
		return http.StatusConflict
	case app.CodeInternal:
		return http.StatusInternalServerError
	default:
		if reason, _ := domain.ReasonOf(err); reason == domain.ReasonInvalidPiece || reason == domain.ReasonInvalidPosition {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Code: app.ErrorCode(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
		resp.Message = "internal error"
	} else if errors.Is(err, app.ErrInvalidSeatToken) {
		s.logger.Warn("seat rejected: %v", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CORS allows the listed origins to call the API from a browser.
func CORS(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
