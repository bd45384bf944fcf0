package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"blokus/internal/app"
	"blokus/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchFixture struct {
	svc        *app.Service
	handler    *matchHandler
	state      *MatchState
	dispatcher *mockDispatcher
	tokens     map[domain.Color]string
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	svc := newTestService(t, "secret")
	game, tokens, _, err := svc.CreateGame(context.Background(), app.CreateGameInput{
		Colors: []domain.Color{domain.Blue, domain.Yellow},
	})
	require.NoError(t, err)

	handler := newMatchHandler(svc, 0)
	state, tickRate, label := handler.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{"game_id": game.GameID})
	require.NotNil(t, state)
	assert.Equal(t, defaultTickRate, tickRate)

	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(label), &fields))
	assert.Equal(t, map[string]string{"game_id": game.GameID, "status": "active", "next": "blue"}, fields)

	return &matchFixture{svc: svc, handler: handler, state: state.(*MatchState), dispatcher: &mockDispatcher{}, tokens: tokens}
}

func (f *matchFixture) join(t *testing.T, userID string, metadata map[string]string) (bool, string) {
	t.Helper()
	presence := mockPresence{userID: userID}
	_, ok, reason := f.handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 1, f.state, presence, metadata)
	if ok {
		f.handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 1, f.state, []runtime.Presence{presence})
	}
	return ok, reason
}

func (f *matchFixture) send(t *testing.T, userID string, opCode int64, body interface{}) interface{} {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = encodeMessage(body)
		require.NoError(t, err)
	}
	msg := mockMatchData{userID: userID, opCode: opCode, data: data}
	return f.handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 2, f.state, []runtime.MatchData{msg})
}

func (f *matchFixture) lastError(t *testing.T) errorPayload {
	t.Helper()
	require.NotEmpty(t, f.dispatcher.messages)
	last := f.dispatcher.messages[len(f.dispatcher.messages)-1]
	require.Equal(t, OpGameError, last.opCode)
	var payload errorPayload
	require.NoError(t, decodeMessage(last.data, &payload))
	return payload
}

func TestMatchInit_UnknownGame(t *testing.T) {
	handler := newMatchHandler(newTestService(t, ""), 5)

	state, _, _ := handler.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{"game_id": "missing"})
	assert.Nil(t, state)
	state, _, _ = handler.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{})
	assert.Nil(t, state)
}

func TestMatchJoin_SeatsAndSpectators(t *testing.T) {
	f := newMatchFixture(t)

	ok, _ := f.join(t, "spectator", nil)
	assert.True(t, ok)
	require.Len(t, f.dispatcher.messages, 1)
	assert.Equal(t, OpSnapshot, f.dispatcher.messages[0].opCode)
	assert.Len(t, f.dispatcher.messages[0].presences, 1, "joiners get the snapshot privately")

	ok, _ = f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	assert.True(t, ok)
	assert.Equal(t, "ann", f.state.Seats[domain.Blue])

	ok, reason := f.join(t, "mallory", map[string]string{"seat_token": f.tokens[domain.Blue]})
	assert.False(t, ok)
	assert.Equal(t, "seat taken", reason)

	ok, reason = f.join(t, "mallory", map[string]string{"seat_token": "forged"})
	assert.False(t, ok)
	assert.Equal(t, app.CodeInvalidSeatToken, reason)

	ok, _ = f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	assert.True(t, ok, "the seat holder may rejoin")
}

func TestMatchLoop_PlaceBroadcastsEventAndSnapshot(t *testing.T) {
	f := newMatchFixture(t)
	f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	f.dispatcher.messages = nil

	result := f.send(t, "ann", OpPlacePiece, map[string]interface{}{
		"piece":    "L4",
		"rotation": 0,
		"anchor":   map[string]int{"x": 0, "y": 0},
	})
	require.NotNil(t, result)

	assert.Equal(t, []int64{OpPiecePlaced, OpSnapshot}, f.dispatcher.opCodes())
	for _, m := range f.dispatcher.messages {
		assert.Nil(t, m.presences, "moves are broadcast to everyone")
	}

	var placed app.PiecePlacedPayload
	require.NoError(t, decodeMessage(f.dispatcher.messages[0].data, &placed))
	assert.Equal(t, domain.Blue, placed.Color)
	assert.Equal(t, domain.Yellow, placed.NextColor)
	assert.Len(t, placed.Cells, 4)

	assert.Equal(t, 2, f.state.Snapshot.Turn)
	require.NotEmpty(t, f.dispatcher.labels)
	var label map[string]string
	require.NoError(t, json.Unmarshal([]byte(f.dispatcher.labels[len(f.dispatcher.labels)-1]), &label))
	assert.Equal(t, "yellow", label["next"])
}

func TestMatchLoop_Rejections(t *testing.T) {
	f := newMatchFixture(t)
	f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	f.join(t, "bo", map[string]string{"seat_token": f.tokens[domain.Yellow]})
	f.join(t, "spectator", nil)

	f.send(t, "bo", OpSkipTurn, nil)
	assert.Equal(t, "not_your_turn", f.lastError(t).Code)

	f.send(t, "ann", OpPlacePiece, map[string]interface{}{"piece": "I1", "anchor": map[string]int{"x": 9, "y": 9}})
	assert.Equal(t, "first_move_must_cover_corner", f.lastError(t).Code)

	f.send(t, "ann", OpPlacePiece, map[string]interface{}{"piece": "I1"})
	assert.Equal(t, "invalid_position", f.lastError(t).Code)

	f.send(t, "ann", OpPlacePiece, map[string]interface{}{"piece": "I1", "anchor": map[string]int{}})
	assert.Equal(t, "invalid_position", f.lastError(t).Code)

	f.send(t, "ann", OpPlacePiece, map[string]interface{}{"piece": "I1", "anchor": map[string]int{"x": 0}})
	assert.Equal(t, "invalid_position", f.lastError(t).Code)

	f.send(t, "ann", OpPlacePiece, map[string]interface{}{"piece": "I1", "anchor": map[string]string{"x": "a", "y": "0"}})
	assert.Equal(t, "invalid_position", f.lastError(t).Code)

	f.send(t, "spectator", OpSkipTurn, nil)
	assert.Equal(t, app.CodeInvalidSeatToken, f.lastError(t).Code)

	f.send(t, "ann", OpSkipTurn, map[string]interface{}{"color": "yellow"})
	assert.Equal(t, app.CodeInvalidSeatToken, f.lastError(t).Code)

	assert.Equal(t, 1, f.state.Snapshot.Turn)
}

func TestMatchLoop_PassesFinishGame(t *testing.T) {
	f := newMatchFixture(t)
	f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	f.join(t, "bo", map[string]string{"seat_token": f.tokens[domain.Yellow]})
	f.dispatcher.messages = nil

	f.send(t, "ann", OpSkipTurn, nil)
	f.send(t, "bo", OpSkipTurn, nil)

	assert.Equal(t, []int64{OpTurnPassed, OpSnapshot, OpTurnPassed, OpGameFinished, OpSnapshot}, f.dispatcher.opCodes())
	assert.Equal(t, domain.StatusFinished, f.state.Snapshot.Status)

	var finished app.GameFinishedPayload
	require.NoError(t, decodeMessage(f.dispatcher.messages[3].data, &finished))
	assert.Equal(t, -89, finished.Scores[domain.Blue])
}

func TestMatchSignal_RefreshAndDelete(t *testing.T) {
	f := newMatchFixture(t)
	f.join(t, "spectator", nil)
	f.dispatcher.messages = nil

	_, _, err := f.svc.SkipTurn(context.Background(), f.state.GameID, domain.Blue)
	require.NoError(t, err)

	_, result := f.handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 3, f.state, signalRefresh)
	assert.Equal(t, signalRefresh, result)
	assert.Equal(t, []int64{OpSnapshot}, f.dispatcher.opCodes())
	assert.Equal(t, domain.Yellow, *f.state.Snapshot.CurrentColor)

	_, result = f.handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 4, f.state, "bogus")
	assert.Equal(t, "unknown signal", result)

	f.handler.MatchSignal(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 5, f.state, signalDeleted)
	assert.True(t, f.state.Deleted)
	assert.Equal(t, OpGameDeleted, f.dispatcher.messages[len(f.dispatcher.messages)-1].opCode)

	assert.Nil(t, f.send(t, "spectator", OpRequestSnapshot, nil), "a deleted game ends the match")
	ok, reason := f.join(t, "late", nil)
	assert.False(t, ok)
	assert.Equal(t, "game deleted", reason)
}

func TestMatchLeave_TerminatesWhenEmpty(t *testing.T) {
	f := newMatchFixture(t)
	f.join(t, "ann", map[string]string{"seat_token": f.tokens[domain.Blue]})
	f.join(t, "spectator", nil)

	state := f.handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 3, f.state, []runtime.Presence{mockPresence{userID: "spectator"}})
	assert.NotNil(t, state)
	state = f.handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.dispatcher, 4, f.state, []runtime.Presence{mockPresence{userID: "ann"}})
	assert.Nil(t, state)
}

func TestMatchLabel_Marshal(t *testing.T) {
	blue := domain.Blue
	tests := []struct {
		name string
		snap *app.Snapshot
		want map[string]string
	}{
		{"NoSnapshot", nil, map[string]string{"game_id": "g", "status": "active", "next": ""}},
		{"Active", &app.Snapshot{Status: domain.StatusActive, CurrentColor: &blue}, map[string]string{"game_id": "g", "status": "active", "next": "blue"}},
		{"Finished", &app.Snapshot{Status: domain.StatusFinished}, map[string]string{"game_id": "g", "status": "finished", "next": ""}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := matchLabel("g", test.snap)
			require.NoError(t, err)
			var got map[string]string
			require.NoError(t, json.Unmarshal([]byte(label), &got))
			assert.Equal(t, test.want, got)
		})
	}
}
