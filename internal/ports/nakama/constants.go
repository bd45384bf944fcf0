package nakama

const (
	RpcCreateGame    = "create_game"
	RpcGetGameState  = "get_game_state"
	RpcPlacePiece    = "place_piece"
	RpcSkipTurn      = "skip_turn"
	RpcListPieces    = "list_pieces"
	RpcDeleteGame    = "delete_game"
	RpcOpenGameMatch = "open_game_match"

	// MatchNameBlokus is the authoritative match handler name registered with Nakama.
	MatchNameBlokus = "blokus_match"

	// GamesCollection is the storage collection holding one object per game.
	GamesCollection = "blokus_games"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpPlacePiece      int64 = 1
	OpSkipTurn        int64 = 2
	OpRequestSnapshot int64 = 3

	// Server -> Client events
	OpSnapshot     int64 = 101 // send to joiners, then broadcast after every move
	OpPiecePlaced  int64 = 102
	OpTurnPassed   int64 = 103
	OpGameFinished int64 = 104
	OpGameError    int64 = 105 // send privately
	OpGameDeleted  int64 = 106
)

// Match signals sent by RPCs that change a game outside the match loop.
const (
	signalRefresh = "refresh"
	signalDeleted = "deleted"
)
