package main

import "strings"

type commandKind int

const (
	cmdPlainText commandKind = iota
	cmdVoteKick
	cmdVoteSkip
	cmdForceSkip
	cmdClearQueue
)

// command is the parsed form of one chat message. Dispatch happens on
// kind, never on the raw text.
type command struct {
	kind   commandKind
	target string // votekick only
	text   string // plain text only
}

// parseCommand classifies chat text into the closed command set. A
// "/votekick" with a blank target falls through to plain text rather
// than becoming an empty-target vote.
func parseCommand(text string) command {
	switch {
	case strings.HasPrefix(text, "/votekick "):
		target := strings.TrimSpace(strings.TrimPrefix(text, "/votekick "))
		if target == "" {
			return command{kind: cmdPlainText, text: text}
		}
		return command{kind: cmdVoteKick, target: target}
	case text == "/voteskip":
		return command{kind: cmdVoteSkip}
	case text == "/skip":
		return command{kind: cmdForceSkip}
	case text == "/clear":
		return command{kind: cmdClearQueue}
	default:
		return command{kind: cmdPlainText, text: text}
	}
}
