package domain

// Proposal is a placement request before validation.
type Proposal struct {
	Color    Color
	Piece    PieceKey
	Rotation int
	Flipped  bool
	Anchor   Cell
}

// Validate checks a proposed placement against the current state and, on success,
// returns the fully resolved move ready to append. Rejections are *RuleError.
//
// Turn ownership is checked first, then the piece, bounds, overlap, same-color
// edge contact and finally the corner rule. The first failing check wins.
func Validate(s *State, p Proposal) (Move, error) {
	if err := checkTurn(s, p.Color); err != nil {
		return Move{}, err
	}

	shape, ok := Transform(p.Piece, p.Rotation, p.Flipped)
	if !ok {
		return Move{}, Reject(ReasonInvalidPiece, "unknown piece %q", p.Piece)
	}
	if s.Board.Used(p.Color, p.Piece) {
		return Move{}, Reject(ReasonPieceAlreadyUsed, "%s already placed %s", p.Color, p.Piece)
	}

	cells := Translate(shape, p.Anchor.X, p.Anchor.Y)
	if err := checkPlacement(s.Board, p.Color, cells, s.IsFirstMove(p.Color)); err != nil {
		return Move{}, err
	}

	return Move{
		Kind:     MovePlacement,
		Color:    p.Color,
		Piece:    p.Piece,
		Rotation: NormalizeRotation(p.Rotation),
		Flipped:  p.Flipped,
		Cells:    cells,
		Turn:     s.NextTurn(),
	}, nil
}

// Pass validates a pass request and returns the move to append.
func Pass(s *State, color Color) (Move, error) {
	if err := checkTurn(s, color); err != nil {
		return Move{}, err
	}
	return PassMove(color, s.NextTurn()), nil
}

func checkTurn(s *State, color Color) *RuleError {
	if s.Status == StatusFinished {
		return Reject(ReasonGameFinished, "game is finished")
	}
	if current := s.CurrentColor(); color != current {
		return Reject(ReasonNotYourTurn, "it is %s's turn", current)
	}
	return nil
}

// checkPlacement runs the geometric rules on absolute cells.
func checkPlacement(b *Board, color Color, cells []Cell, first bool) *RuleError {
	for _, c := range cells {
		if !c.InBounds(b.size) {
			return Reject(ReasonOutOfBounds, "cell (%d,%d) is off the %dx%d board", c.X, c.Y, b.size, b.size)
		}
	}
	for _, c := range cells {
		if owner, taken := b.occupancy[c]; taken {
			return Reject(ReasonOverlap, "cell (%d,%d) is held by %s", c.X, c.Y, owner)
		}
	}
	for _, c := range cells {
		if touchesEdge(b, c, color) {
			return Reject(ReasonTouchSameColorEdge, "cell (%d,%d) touches a %s edge", c.X, c.Y, color)
		}
	}

	if first {
		corner := StartCorner(color, b.size)
		for _, c := range cells {
			if c == corner {
				return nil
			}
		}
		return Reject(ReasonFirstMoveCorner, "first %s piece must cover (%d,%d)", color, corner.X, corner.Y)
	}

	for _, c := range cells {
		for _, d := range cornerOffsets {
			if b.ownedBy(c.Add(d.X, d.Y), color) {
				return nil
			}
		}
	}
	return Reject(ReasonMustTouchCorner, "piece must touch a %s corner", color)
}

// HasLegalPlacement reports whether color could place any remaining piece anywhere.
// It ignores whose turn it is.
func HasLegalPlacement(s *State, color Color) bool {
	if !color.Valid() || !s.HasColor(color) || s.Status == StatusFinished {
		return false
	}
	first := s.IsFirstMove(color)
	targets := anchorTargets(s.Board, color, first)
	if len(targets) == 0 {
		return false
	}
	for _, key := range s.Board.RemainingPieces(color) {
		for _, o := range Orientations(key) {
			for _, t := range targets {
				// Any legal placement covers a target cell with one of its own cells.
				for _, c := range o.Cells {
					cells := Translate(o.Cells, t.X-c.X, t.Y-c.Y)
					if checkPlacement(s.Board, color, cells, first) == nil {
						return true
					}
				}
			}
		}
	}
	return false
}

// anchorTargets lists the free cells a legal placement for color must cover one of.
func anchorTargets(b *Board, color Color, first bool) []Cell {
	if first {
		corner := StartCorner(color, b.size)
		if _, taken := b.occupancy[corner]; taken {
			return nil
		}
		return []Cell{corner}
	}
	seen := make(map[Cell]bool)
	var out []Cell
	for _, own := range b.cells[color] {
		for _, d := range cornerOffsets {
			t := own.Add(d.X, d.Y)
			if seen[t] || !t.InBounds(b.size) {
				continue
			}
			seen[t] = true
			if _, taken := b.occupancy[t]; taken {
				continue
			}
			if touchesEdge(b, t, color) {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

func touchesEdge(b *Board, c Cell, color Color) bool {
	for _, d := range edgeOffsets {
		if b.ownedBy(c.Add(d.X, d.Y), color) {
			return true
		}
	}
	return false
}
