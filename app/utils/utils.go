package utils

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"GoLetterAI/app/teams"
)

// Preview flattens s onto one line and cuts it to n runes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ConversationTree renders a conversation grouped by round, one node per message with
// the decision parsed from it.
func ConversationTree(title string, conversation []teams.ConversationEntry, width int) string {
	tree := treeprint.New()
	tree.SetValue(title)

	rounds := make(map[int]treeprint.Tree)
	for _, entry := range conversation {
		branch, ok := rounds[entry.Round]
		if !ok {
			branch = tree.AddBranch(fmt.Sprintf("Round %d", entry.Round))
			rounds[entry.Round] = branch
		}
		decision := teams.ParseDecision(entry.Role, entry.Message)
		branch.AddMetaNode(fmt.Sprintf("%s %s", entry.Role, decision), Preview(entry.Message, width))
	}
	return tree.String()
}
