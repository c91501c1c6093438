package paging

import (
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const cursorVersion = 1

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position: the sort key of the last item returned and its
// id as a tie breaker. Results continue strictly after (Key, ID) in
// descending order.
type Cursor struct {
	Key int64
	ID  string
}

func (c Cursor) IsZero() bool { return c.Key == 0 && c.ID == "" }

// Encode returns the opaque token form of c. The zero cursor encodes to "".
func (c Cursor) Encode() (string, error) {
	if c.IsZero() {
		return "", nil
	}
	s, err := structpb.NewStruct(map[string]any{
		"v":  cursorVersion,
		"k":  c.Key,
		"id": c.ID,
	})
	if err != nil {
		return "", fmt.Errorf("build cursor: %w", err)
	}
	raw, err := proto.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// String is Encode without the error. Cursors built from stored rows always
// encode.
func (c Cursor) String() string {
	s, _ := c.Encode()
	return s
}

// DecodeCursor parses a token produced by Encode. The empty token decodes to
// the zero cursor, meaning the first page.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(raw, &s); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	fields := s.GetFields()
	if int(fields["v"].GetNumberValue()) != cursorVersion {
		return Cursor{}, fmt.Errorf("%w: unsupported version", ErrInvalidCursor)
	}
	key, ok := fields["k"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return Cursor{}, fmt.Errorf("%w: missing key", ErrInvalidCursor)
	}
	id := fields["id"].GetStringValue()
	if id == "" {
		return Cursor{}, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	return Cursor{Key: int64(key.NumberValue), ID: id}, nil
}
