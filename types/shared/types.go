package sharedtypes

import (
	"github.com/google/uuid"
)

// RoundID is the canonical identifier for a round.
type RoundID uuid.UUID

func (id RoundID) String() string {
	return uuid.UUID(id).String()
}

func (id RoundID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// NewRoundID generates a fresh round identifier.
func NewRoundID() RoundID {
	return RoundID(uuid.New())
}

// ParseRoundID parses the string form of a round identifier.
func ParseRoundID(s string) (RoundID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RoundID{}, err
	}
	return RoundID(u), nil
}

// OutingID is the canonical identifier for an outing.
type OutingID uuid.UUID

func (id OutingID) String() string {
	return uuid.UUID(id).String()
}

func (id OutingID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// NewOutingID generates a fresh outing identifier.
func NewOutingID() OutingID {
	return OutingID(uuid.New())
}

// ParseOutingID parses the string form of an outing identifier.
func ParseOutingID(s string) (OutingID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OutingID{}, err
	}
	return OutingID(u), nil
}

// PlayerID identifies a player. Ghost players carry synthetic IDs minted by
// the client, so this stays a string rather than a UUID.
type PlayerID string

// GroupID identifies one group within an outing.
type GroupID string

// MarshalText implements encoding.TextMarshaler for RoundID.
func (id RoundID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for RoundID.
func (id *RoundID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = RoundID(u)
	return nil
}

// MarshalText implements encoding.TextMarshaler for OutingID.
func (id OutingID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for OutingID.
func (id *OutingID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = OutingID(u)
	return nil
}
