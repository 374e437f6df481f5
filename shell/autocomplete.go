package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names and their options.
type ShellCompleter struct{}

func NewShellCompleter() *ShellCompleter {
	return &ShellCompleter{}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"analyze": {
		Options: []string{"-depth", "-multipv", "-threads", "-force"},
		Args:    []string{"startpos", "sfen"},
	},
	"evalat": {
		Options: []string{"-depth", "-multipv", "-threads"},
		Args:    []string{"startpos", "sfen"},
	},
	"help": {
		Args: []string{"analyze", "evalat"},
	},
}

var commandNames = []string{"analyze", "evalat", "help", "exit"}

var depthValues = []string{"10", "18", "24", "30"}

// Do implements the readline.AutoComplete interface.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		switch cmdName {
		case "a":
			cmdName = "analyze"
		case "e":
			cmdName = "evalat"
		}
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}
		if lastCompleteField == "-depth" {
			completions = depthValues
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				// Positional args only make sense right after the command.
				if strings.HasPrefix(prefix, "-") || len(fields) > 2 || (len(fields) == 2 && endsWithSpace) {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
