package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Game is the board of one room together with its turn and winner.
type Game struct {
	Board         entity.Board
	CurrentPlayer entity.Role
	Winner        entity.Role
}

func NewGame() *Game {
	return &Game{}
}

// Reset clears the board and winner and hands the turn to first.
func (that *Game) Reset(first entity.Role) {
	that.Board = entity.Board{}
	that.Winner = entity.EmptyCell
	that.CurrentPlayer = first
}

// MakeMove plays the current player's mark at (row, col).
// The caller is responsible for checking that the actor owns the turn.
func (that *Game) MakeMove(row, col int) error {
	if !inBounds(row, col) {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, row, col)
	}

	if that.Board[row][col] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	if that.Winner != entity.EmptyCell {
		return apperror.ErrGameFinished
	}

	board, accepted, win := AttemptMove(that.Board, that.Winner, row, col, that.CurrentPlayer)
	if !accepted {
		return apperror.ErrCellOccupied
	}

	that.Board = board
	updateGameStatus(that, win)

	return nil
}

func (that *Game) Snapshot() entity.Snapshot {
	return entity.NewSnapshot(that.Board, that.CurrentPlayer, that.Winner)
}

// AttemptMove writes role at (row, col) on a copy of board. The move is
// refused, with the board returned untouched, when the cell is taken or
// a winner is already recorded.
func AttemptMove(board entity.Board, winner entity.Role, row, col int, role entity.Role) (entity.Board, bool, bool) {
	if !inBounds(row, col) || winner != entity.EmptyCell || board[row][col] != entity.EmptyCell {
		return board, false, false
	}

	board[row][col] = role

	return board, true, CheckWin(board, row, col, role)
}

// CheckWin only looks at the lines through (row, col), so it must run right
// after that cell was written.
func CheckWin(board entity.Board, row, col int, role entity.Role) bool {
	rowWin, colWin := true, true
	for i := range entity.BoardSize {
		if board[row][i] != role {
			rowWin = false
		}
		if board[i][col] != role {
			colWin = false
		}
	}

	if rowWin || colWin {
		return true
	}

	if row == col && board[0][0] == role && board[1][1] == role && board[2][2] == role {
		return true
	}

	return row+col == entity.BoardSize-1 && board[0][2] == role && board[1][1] == role && board[2][0] == role
}

// updateGameStatus - fixes the winner or passes the turn.
func updateGameStatus(game *Game, win bool) {
	if win {
		game.Winner = game.CurrentPlayer
		return
	}

	game.CurrentPlayer = toggleMark(game.CurrentPlayer)
}

func toggleMark(currentMark entity.Role) entity.Role {
	if currentMark == entity.RoleX {
		return entity.RoleO
	}
	return entity.RoleX
}

func inBounds(row, col int) bool {
	return row >= 0 && row < entity.BoardSize && col >= 0 && col < entity.BoardSize
}
