package seed

import (
	"strings"

	"github.com/dori/taskdeck/internal/model"
)

// QuickAdd parses a one-line task description. Words starting with ! set
// the priority and words starting with # set the status; everything else
// is the title.
//
//	"Write report !high #doing" -> {Title: "Write report", High, In Progress}
func QuickAdd(text string) model.TaskInput {
	in := model.TaskInput{
		Priority: model.PriorityMedium,
		Status:   model.StatusTodo,
	}

	var title []string
	for _, word := range strings.Fields(text) {
		switch {
		case len(word) > 1 && word[0] == '!':
			if p, ok := quickPriority(word[1:]); ok {
				in.Priority = p
				continue
			}
		case len(word) > 1 && word[0] == '#':
			if s, ok := quickStatus(word[1:]); ok {
				in.Status = s
				continue
			}
		}
		title = append(title, word)
	}
	in.Title = strings.Join(title, " ")
	return in
}

func quickPriority(s string) (model.Priority, bool) {
	switch strings.ToLower(s) {
	case "high", "hi", "h", "urgent":
		return model.PriorityHigh, true
	case "medium", "med", "m":
		return model.PriorityMedium, true
	case "low", "lo", "l":
		return model.PriorityLow, true
	}
	return "", false
}

func quickStatus(s string) (model.Status, bool) {
	switch strings.ToLower(s) {
	case "todo":
		return model.StatusTodo, true
	case "doing", "wip", "progress", "in_progress":
		return model.StatusInProgress, true
	case "done", "completed":
		return model.StatusDone, true
	}
	return "", false
}
