package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blokus/internal/app/onboarding"
	"blokus/internal/config"
	"blokus/internal/domain"
	"blokus/internal/ports"

	"github.com/google/uuid"
)

// Service contains the game use-cases: it loads a game's move log, projects it,
// validates the request against the projection and appends the accepted move.
type Service struct {
	store     ports.GameStore
	tokens    *SeatTokens
	names     *onboarding.NameGenerator
	rules     domain.ScoreRules
	boardSize int
	colors    []domain.Color
	retries   int
	locks     *gameLocks
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the id generator used for games, players and moves.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithNames replaces the generator used for players created without a name.
func WithNames(names *onboarding.NameGenerator) Option {
	return func(s *Service) { s.names = names }
}

// NewService constructs a Service over store using the rules and defaults in cfg.
func NewService(store ports.GameStore, cfg config.GameConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("game store is required")
	}
	colors := make([]domain.Color, 0, len(cfg.Colors))
	for _, name := range cfg.Colors {
		c, err := domain.ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("config colors: %w", err)
		}
		colors = append(colors, c)
	}
	if len(colors) == 0 {
		colors = append(colors, domain.DefaultColors...)
	}
	if _, err := domain.NewPlayers(colors, nil); err != nil {
		return nil, fmt.Errorf("config colors: %w", err)
	}
	boardSize := cfg.BoardSize
	if boardSize == 0 {
		boardSize = domain.DefaultBoardSize
	}
	if err := domain.ValidateBoardSize(boardSize); err != nil {
		return nil, fmt.Errorf("config board size: %w", err)
	}
	// Unlike board size and colors, a zero bonus is a valid rule variant and is not defaulted.
	if cfg.CompletionBonus < 0 || cfg.MonominoBonus < 0 {
		return nil, fmt.Errorf("config bonuses must not be negative: completion %d, monomino %d", cfg.CompletionBonus, cfg.MonominoBonus)
	}

	s := &Service{
		store:     store,
		tokens:    NewSeatTokens(cfg.SeatTokenSecret, time.Duration(cfg.SeatTokenTTLSeconds)*time.Second),
		rules:     domain.ScoreRules{CompletionBonus: cfg.CompletionBonus, MonominoBonus: cfg.MonominoBonus},
		boardSize: boardSize,
		colors:    colors,
		retries:   max(cfg.AppendRetries, 0),
		locks:     newGameLocks(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.names == nil {
		s.names = onboarding.NewNameGenerator(nil)
	}
	if s.tokens != nil {
		s.tokens.now = s.now
	}
	return s, nil
}

// CreateGameInput describes a new game. Zero values fall back to the configured defaults.
type CreateGameInput struct {
	Colors    []domain.Color
	Names     []string
	BoardSize int
}

// PlaceInput is a placement request. Anchor is required.
type PlaceInput struct {
	Color    domain.Color
	Piece    domain.PieceKey
	Rotation int
	Flipped  bool
	Anchor   *domain.Cell
}

// CreateGame stores a new game and returns its initial snapshot together with one
// seat token per color. Tokens are nil when seat tokens are not configured.
func (s *Service) CreateGame(ctx context.Context, in CreateGameInput) (*Snapshot, map[domain.Color]string, []Event, error) {
	colors := in.Colors
	if len(colors) == 0 {
		colors = s.colors
	}
	size := in.BoardSize
	if size == 0 {
		size = s.boardSize
	}
	if err := domain.ValidateBoardSize(size); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}
	players, err := domain.NewPlayers(colors, in.Names)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}

	rec := ports.GameRecord{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		Status:    string(domain.StatusActive),
		BoardSize: size,
		Moves:     []ports.MoveRecord{},
	}
	for i := range players {
		if players[i].Name == "" {
			players[i].Name = s.names.Next()
		}
		rec.Players = append(rec.Players, ports.PlayerRecord{
			ID:         s.newID(),
			GameID:     rec.ID,
			Color:      players[i].Color.String(),
			OrderIndex: players[i].OrderIndex,
			Name:       players[i].Name,
		})
	}

	stored, err := s.store.CreateGame(ctx, rec)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create game: %w", err)
	}

	var tokens map[domain.Color]string
	if s.tokens != nil {
		tokens = make(map[domain.Color]string, len(players))
		for _, p := range players {
			token, err := s.tokens.Issue(stored.ID, p.Color)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("issue seat token: %w", err)
			}
			tokens[p.Color] = token
		}
	}

	snap := buildSnapshot(stored.ID, stored.CreatedAt, domain.NewState(size, players), s.rules)
	events := []Event{{
		Kind:    EventGameCreated,
		GameID:  stored.ID,
		Payload: GameCreatedPayload{Players: snap.Players, BoardSize: size},
	}}
	return snap, tokens, events, nil
}

// GetState projects the stored move log of a game.
func (s *Service) GetState(ctx context.Context, gameID string) (*Snapshot, error) {
	rec, err := s.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	state, err := replay(rec)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(rec.ID, rec.CreatedAt, state, s.rules), nil
}

// PlacePiece validates and appends a placement. Rejections leave the game unchanged.
func (s *Service) PlacePiece(ctx context.Context, gameID string, in PlaceInput) (*Snapshot, []Event, error) {
	if in.Anchor == nil {
		return nil, nil, domain.Reject(domain.ReasonInvalidPosition, "anchor is required")
	}
	proposal := domain.Proposal{
		Color:    in.Color,
		Piece:    in.Piece,
		Rotation: in.Rotation,
		Flipped:  in.Flipped,
		Anchor:   *in.Anchor,
	}
	return s.commit(ctx, gameID, func(state *domain.State) (domain.Move, error) {
		return domain.Validate(state, proposal)
	})
}

// SkipTurn appends a pass for color.
func (s *Service) SkipTurn(ctx context.Context, gameID string, color domain.Color) (*Snapshot, []Event, error) {
	return s.commit(ctx, gameID, func(state *domain.State) (domain.Move, error) {
		return domain.Pass(state, color)
	})
}

// DeleteGame removes a game with its players and moves.
func (s *Service) DeleteGame(ctx context.Context, gameID string) error {
	release := s.locks.lock(gameID)
	defer release()

	if err := s.store.DeleteGame(ctx, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// Pieces returns the piece catalog in catalog order.
func (s *Service) Pieces() []domain.PieceInfo {
	return domain.Catalog()
}

// SeatTokensEnabled reports whether requests must carry a seat token.
func (s *Service) SeatTokensEnabled() bool {
	return s.tokens != nil
}

// VerifySeat returns the game and color a seat token grants.
func (s *Service) VerifySeat(token string) (string, domain.Color, error) {
	return s.tokens.Verify(token)
}

// AuthorizeSeat verifies token and checks that it was issued for gameID.
func (s *Service) AuthorizeSeat(token, gameID string) (domain.Color, error) {
	tokenGame, color, err := s.VerifySeat(token)
	if err != nil {
		return 0, err
	}
	if tokenGame != gameID {
		return 0, fmt.Errorf("%w: issued for another game", ErrInvalidSeatToken)
	}
	return color, nil
}

// ResolveSeat decides which color a move request acts for. With seat tokens the token
// decides and a claimed color must agree with it; without them the claimed color is trusted.
func (s *Service) ResolveSeat(gameID, token, claimed string) (domain.Color, error) {
	if !s.SeatTokensEnabled() {
		color, err := domain.ParseColor(claimed)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return color, nil
	}
	if token == "" {
		return 0, fmt.Errorf("%w: seat token is required", ErrInvalidSeatToken)
	}
	color, err := s.AuthorizeSeat(token, gameID)
	if err != nil {
		return 0, err
	}
	if claimed != "" {
		if c, err := domain.ParseColor(claimed); err != nil || c != color {
			return 0, fmt.Errorf("%w: token is for %s", ErrInvalidSeatToken, color)
		}
	}
	return color, nil
}

// commit runs the read, validate and append cycle for one move while holding the
// game's lock. A version conflict means another writer appended first; the move is
// then re-validated against a fresh projection, up to the configured retries.
func (s *Service) commit(ctx context.Context, gameID string, decide func(*domain.State) (domain.Move, error)) (*Snapshot, []Event, error) {
	release := s.locks.lock(gameID)
	defer release()

	for attempt := 0; ; attempt++ {
		rec, err := s.store.LoadGame(ctx, gameID)
		if err != nil {
			return nil, nil, fmt.Errorf("load game: %w", err)
		}
		state, err := replay(rec)
		if err != nil {
			return nil, nil, err
		}

		move, err := decide(state)
		if err != nil {
			return nil, nil, err
		}
		if err := state.Apply(move); err != nil {
			return nil, nil, fmt.Errorf("apply validated move: %w", err)
		}

		mr := moveToRecord(gameID, s.newID(), move)
		mr.CreatedAt = s.now().UTC()
		update := ports.GameUpdate{Status: string(state.Status), NextPlayerIndex: state.NextPlayerIndex}
		stored, err := s.store.AppendMove(ctx, gameID, rec.Version, mr, update)
		if err == nil {
			snap := buildSnapshot(stored.ID, stored.CreatedAt, state, s.rules)
			return snap, moveEvents(gameID, state, move, snap), nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, nil, fmt.Errorf("append move: %w", err)
		}
		if attempt >= s.retries {
			return nil, nil, fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
		}
	}
}

func moveEvents(gameID string, state *domain.State, move domain.Move, snap *Snapshot) []Event {
	next := state.CurrentColor()
	var events []Event
	if move.IsPass() {
		events = append(events, Event{
			Kind:    EventTurnPassed,
			GameID:  gameID,
			Payload: TurnPassedPayload{Color: move.Color, Turn: move.Turn, NextColor: next},
		})
	} else {
		events = append(events, Event{
			Kind:   EventPiecePlaced,
			GameID: gameID,
			Payload: PiecePlacedPayload{
				Color:     move.Color,
				Piece:     move.Piece,
				Cells:     move.Cells,
				Turn:      move.Turn,
				NextColor: next,
			},
		})
	}
	if state.Status == domain.StatusFinished {
		events = append(events, Event{
			Kind:    EventGameFinished,
			GameID:  gameID,
			Payload: GameFinishedPayload{Scores: snap.Scores, Winners: snap.Winners},
		})
	}
	return events
}
