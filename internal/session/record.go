package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
)

// ErrMalformedRecord is returned by Decode for unreadable or half-populated
// records.
var ErrMalformedRecord = errors.New("session: malformed record")

// ErrIncompleteSession is returned by Encode for sessions missing either half.
var ErrIncompleteSession = errors.New("session: incomplete session")

type record struct {
	User  dto.UserPayload `json:"user"`
	Token string          `json:"token"`
}

// Encode serializes s as {"user":{...},"token":"..."}.
func Encode(s domain.Session) ([]byte, error) {
	if !s.Complete() {
		return nil, ErrIncompleteSession
	}
	return json.Marshal(record{User: dto.UserFromPrincipal(s.Principal), Token: s.Token})
}

// Decode parses a persisted record.
func Decode(raw []byte) (domain.Session, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	s := domain.Session{Principal: rec.User.Principal(), Token: rec.Token}
	if !s.Complete() {
		return domain.Session{}, ErrMalformedRecord
	}
	return s, nil
}
