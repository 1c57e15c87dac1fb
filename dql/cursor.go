package dql

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// cursorPosition resumes a search after the document with sequence Seq.
// Hash ties the cursor to the canonical query it was issued for.
type cursorPosition struct {
	Seq  int64  `json:"seq"`
	Hash string `json:"hash"`
}

func hashQuery(table, canonical string) string {
	h := sha256.New()
	h.Write([]byte(table))
	h.Write([]byte("\n"))
	h.Write([]byte(canonical))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func encodeCursor(pos cursorPosition) (string, error) {
	b, err := json.Marshal(pos)
	if err != nil {
		return "", Wrap(ErrCursor, "cursor json", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(tok, hash string) (cursorPosition, error) {
	b, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return cursorPosition{}, CursorError("base64 decode error")
	}
	var pos cursorPosition
	if err := json.Unmarshal(b, &pos); err != nil {
		return cursorPosition{}, CursorError("cursor json parse error")
	}
	if pos.Hash != hash {
		return cursorPosition{}, CursorError("cursor was issued for a different query")
	}
	return pos, nil
}
