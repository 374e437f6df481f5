package usi

import (
	"testing"

	"github.com/matryer/is"
)

func TestPositionCommand(t *testing.T) {
	is := is.New(t)
	const board = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

	is.Equal(PositionCommand("startpos", ""), "position startpos")
	is.Equal(PositionCommand("startpos", "7g7f"), "position startpos moves 7g7f")
	is.Equal(PositionCommand(board, ""), "position sfen "+board)
	is.Equal(PositionCommand(board, "7g7f"), "position sfen "+board+" moves 7g7f")
}

func TestPositionCommandStartposWithMoves(t *testing.T) {
	is := is.New(t)
	// An existing history wins over the forced move.
	is.Equal(PositionCommand("startpos moves 7g7f 3c3d", "2g2f"), "position startpos moves 7g7f 3c3d")
	is.Equal(PositionCommand("startpos moves 7g7f", ""), "position startpos moves 7g7f")
	// "startposition" is not the baseline keyword.
	is.Equal(PositionCommand("startposition", ""), "position sfen startposition")
}

func TestPositionCommandSfenKeyword(t *testing.T) {
	is := is.New(t)
	const board = "9/9/9/9/4k4/9/9/9/4K4 b G 1"
	is.Equal(PositionCommand("sfen "+board, ""), "position sfen "+board)
	is.Equal(PositionCommand("  "+board+"  ", "5i5h"), "position sfen "+board+" moves 5i5h")
}
