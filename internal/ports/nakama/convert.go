package nakama

import (
	"encoding/json"
	"fmt"

	"blokus/internal/app"
	"blokus/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("value is not a JSON object: %w", err)
	}
	return structpb.NewStruct(fields)
}

// encodeMessage is the wire form of every match message: a binary protobuf Struct.
func encodeMessage(v interface{}) ([]byte, error) {
	st, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// decodeMessage reads a Struct-encoded match message into v.
func decodeMessage(data []byte, v interface{}) error {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	raw, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	return nil
}

// matchLabel renders the label used to find the match of a game.
func matchLabel(gameID string, snap *app.Snapshot) (string, error) {
	fields := map[string]interface{}{
		"game_id": gameID,
		"status":  string(domain.StatusActive),
		"next":    "",
	}
	if snap != nil {
		fields["status"] = string(snap.Status)
		if snap.CurrentColor != nil {
			fields["next"] = snap.CurrentColor.String()
		}
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(st)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// errorPayload is the client-facing shape of a failed request.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorPayload(err error) errorPayload {
	payload := errorPayload{Code: app.ErrorCode(err), Message: err.Error()}
	if app.IsFault(err) {
		payload.Message = "internal error"
	}
	return payload
}
