package nakama

import (
	"context"
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) opCodes() []int64 {
	out := make([]int64, len(md.messages))
	for i, m := range md.messages {
		out[i] = m.opCode
	}
	return out
}

// mockPresence overrides the presence getters the handler reads.
type mockPresence struct {
	runtime.Presence
	userID string
}

func (p mockPresence) GetUserId() string   { return p.userID }
func (p mockPresence) GetUsername() string { return p.userID }

type mockMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (m mockMatchData) GetUserId() string { return m.userID }
func (m mockMatchData) GetOpCode() int64  { return m.opCode }
func (m mockMatchData) GetData() []byte   { return m.data }

// fakeNakama implements the storage, match and account calls of runtime.NakamaModule in memory.
// Calling anything else panics on the nil embedded module.
type fakeNakama struct {
	runtime.NakamaModule

	objects   map[string]*api.StorageObject
	writes    int
	failReads bool

	matches map[string]string // match id -> game id
	signals []string          // "match:signal"

	accountUpdates map[string]string // user id -> display name
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		objects:        map[string]*api.StorageObject{},
		matches:        map[string]string{},
		accountUpdates: map[string]string{},
	}
}

func (f *fakeNakama) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	if f.failReads {
		return nil, fmt.Errorf("database is down")
	}
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[r.Collection+"/"+r.Key]; ok {
			copied := *obj
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	var acks []*api.StorageObjectAck
	for _, w := range writes {
		id := w.Collection + "/" + w.Key
		existing, exists := f.objects[id]
		switch {
		case w.Version == "*" && exists:
			return nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!exists || existing.Version != w.Version):
			return nil, runtime.ErrStorageRejectedVersion
		}
		f.writes++
		version := fmt.Sprintf("v%d", f.writes)
		f.objects[id] = &api.StorageObject{Collection: w.Collection, Key: w.Key, Value: w.Value, Version: version}
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, Version: version})
	}
	return acks, nil
}

func (f *fakeNakama) StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error {
	for _, d := range deletes {
		delete(f.objects, d.Collection+"/"+d.Key)
	}
	return nil
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	var out []*api.Match
	for matchID, gameID := range f.matches {
		if strings.Contains(query, fmt.Sprintf("%q", gameID)) {
			out = append(out, &api.Match{MatchId: matchID, Authoritative: true})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	gameID, _ := params["game_id"].(string)
	matchID := fmt.Sprintf("match-%d.node", len(f.matches)+1)
	f.matches[matchID] = gameID
	return matchID, nil
}

func (f *fakeNakama) MatchSignal(ctx context.Context, id string, data string) (string, error) {
	f.signals = append(f.signals, id+":"+data)
	return data, nil
}

func (f *fakeNakama) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	f.accountUpdates[userID] = displayName
	return nil
}
