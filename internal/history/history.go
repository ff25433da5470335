// Package history provides linear undo/redo over task commands.
package history

import (
	"fmt"
)

// CommandError is returned when the target rejects a command. The stacks
// are left exactly as they were before the failed call.
type CommandError struct {
	Op          string // execute, undo or redo
	Kind        Kind
	Description string
	Err         error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("failed to %s %s (%s): %v", e.Op, e.Kind, e.Description, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// History holds the undo and redo stacks. It is not safe for concurrent
// use; the owner serializes access.
type History struct {
	target    Target
	undoStack []Command
	redoStack []Command

	// Limit caps the undo stack, dropping the oldest entry. Zero means unbounded.
	Limit int
}

// New creates an empty history that applies commands to target
func New(target Target) *History {
	return &History{target: target}
}

// AddCommand executes cmd, records it and clears the redo stack
func (h *History) AddCommand(cmd Command) error {
	if err := apply(h.target, cmd); err != nil {
		return &CommandError{Op: "execute", Kind: cmd.Kind, Description: cmd.Description, Err: err}
	}
	h.undoStack = append(h.undoStack, cmd)
	if h.Limit > 0 && len(h.undoStack) > h.Limit {
		h.undoStack = h.undoStack[len(h.undoStack)-h.Limit:]
	}
	h.redoStack = nil
	return nil
}

// Undo reverts the most recent command. It reports false when there was
// nothing to undo.
func (h *History) Undo() (bool, error) {
	if len(h.undoStack) == 0 {
		return false, nil
	}

	cmd := h.undoStack[len(h.undoStack)-1]
	if err := invert(h.target, cmd); err != nil {
		return false, &CommandError{Op: "undo", Kind: cmd.Kind, Description: cmd.Description, Err: err}
	}

	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, cmd)
	return true, nil
}

// Redo reapplies the most recently undone command
func (h *History) Redo() (bool, error) {
	if len(h.redoStack) == 0 {
		return false, nil
	}

	cmd := h.redoStack[len(h.redoStack)-1]
	if err := apply(h.target, cmd); err != nil {
		return false, &CommandError{Op: "redo", Kind: cmd.Kind, Description: cmd.Description, Err: err}
	}

	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, cmd)
	return true, nil
}

// CanUndo reports whether Undo would do anything
func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

// CanRedo reports whether Redo would do anything
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// LastAction returns the description of the command Undo would revert
func (h *History) LastAction() string {
	if len(h.undoStack) == 0 {
		return ""
	}
	return h.undoStack[len(h.undoStack)-1].Description
}

// NextRedo returns the description of the command Redo would reapply
func (h *History) NextRedo() string {
	if len(h.redoStack) == 0 {
		return ""
	}
	return h.redoStack[len(h.redoStack)-1].Description
}

// Len returns the depth of both stacks
func (h *History) Len() (undo, redo int) {
	return len(h.undoStack), len(h.redoStack)
}

// Stacks returns copies of the undo and redo stacks, oldest first
func (h *History) Stacks() (undo, redo []Command) {
	return append([]Command(nil), h.undoStack...), append([]Command(nil), h.redoStack...)
}

// MaxTaskID returns the largest task id referenced by any command on
// either stack, or zero when none is. Ids up to it must not be handed to
// new tasks while those commands can still be undone or redone.
func (h *History) MaxTaskID() int {
	highest := 0
	for _, stack := range [][]Command{h.undoStack, h.redoStack} {
		for _, c := range stack {
			for _, id := range c.taskIDs() {
				if id > highest {
					highest = id
				}
			}
		}
	}
	return highest
}

// Load replaces both stacks without applying anything. The caller
// guarantees the target is in the state the stacks describe.
func (h *History) Load(undo, redo []Command) {
	h.undoStack = append([]Command(nil), undo...)
	h.redoStack = append([]Command(nil), redo...)
	if h.Limit > 0 && len(h.undoStack) > h.Limit {
		h.undoStack = h.undoStack[len(h.undoStack)-h.Limit:]
	}
}

// Clear empties both stacks
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
