package usi

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	startposKeyword = "startpos"
	sfenKeyword     = "sfen"
	movesKeyword    = "moves"
)

// PositionCommand builds the `position` command for an input that is either
// the startpos keyword (optionally followed by a moves clause) or a full SFEN
// board state. A non-empty forceMove is appended as a one-move history.
//
// When a startpos input already carries a moves clause the forced move is
// ignored and the input is sent as is.
func PositionCommand(sfen, forceMove string) string {
	sfen = strings.TrimSpace(sfen)
	fields := strings.Fields(sfen)
	if len(fields) > 0 && fields[0] == startposKeyword {
		if forceMove == "" {
			return "position " + sfen
		}
		if slices.Contains(fields, movesKeyword) {
			log.Debug().Str("sfen", sfen).Str("force-move", forceMove).
				Msg("startpos already has moves; ignoring forced move")
			return "position " + sfen
		}
		return "position " + sfen + " " + movesKeyword + " " + forceMove
	}

	// Accept input that already names the sfen keyword.
	if len(fields) > 1 && fields[0] == sfenKeyword {
		sfen = strings.TrimSpace(strings.TrimPrefix(sfen, sfenKeyword))
	}
	if forceMove == "" {
		return "position " + sfenKeyword + " " + sfen
	}
	return "position " + sfenKeyword + " " + sfen + " " + movesKeyword + " " + forceMove
}
