package entity

const (
	RoleX         Role = "X"
	RoleO         Role = "O"
	RoleSpectator Role = "spectator"

	// RoleAuto is only valid as a requested role: take whichever slot is free.
	RoleAuto Role = "auto"

	EmptyCell Role = ""
)

const BoardSize = 3

// Role is both a participant designation and a cell value.
type Role string

// ParseRequestedRole maps a client role token to X, O or auto.
// Anything unrecognised falls back to auto.
func ParseRequestedRole(token string) Role {
	switch Role(token) {
	case RoleX, RoleO:
		return Role(token)
	default:
		return RoleAuto
	}
}

// IsPlayer reports whether the role holds one of the two active slots.
func (that Role) IsPlayer() bool {
	return that == RoleX || that == RoleO
}

// Opponent returns the other active role. It is only meaningful for X and O.
func (that Role) Opponent() Role {
	if that == RoleX {
		return RoleO
	}
	return RoleX
}

type Board [BoardSize][BoardSize]Role

func (that *Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

// Snapshot is the state broadcast to every connection of a room.
type Snapshot struct {
	Board         Board `json:"board"`
	CurrentPlayer *Role `json:"current_player"`
	Winner        *Role `json:"winner"`
	Draw          bool  `json:"draw"`
}

func NewSnapshot(board Board, current, winner Role) Snapshot {
	return Snapshot{
		Board:         board,
		CurrentPlayer: optionalRole(current),
		Winner:        optionalRole(winner),
		Draw:          winner == EmptyCell && board.IsFull(),
	}
}

func optionalRole(role Role) *Role {
	if role == EmptyCell {
		return nil
	}
	return &role
}
