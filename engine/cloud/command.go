package cloud

import (
	"fmt"
	"sync"
)

// CommandKind identifies what a Command asks the synchronizer to do.
type CommandKind int

const (
	// CommandApplyPreset applies Command.Preset on the next tick.
	CommandApplyPreset CommandKind = iota

	// CommandRegenerate asks every registered Regenerator to rebuild its texture.
	CommandRegenerate
)

func (k CommandKind) String() string {
	switch k {
	case CommandApplyPreset:
		return "preset"
	case CommandRegenerate:
		return "regenerate"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is a one-shot trigger consumed by the synchronizer on its next tick.
type Command struct {
	Kind   CommandKind
	Preset Preset
}

// PresetCommand builds a command that applies p.
func PresetCommand(p Preset) Command {
	return Command{Kind: CommandApplyPreset, Preset: p}
}

// RegenerateCommand builds a command that requests texture regeneration.
func RegenerateCommand() Command {
	return Command{Kind: CommandRegenerate}
}

// CommandQueue is a FIFO of commands that is safe to push from any goroutine. The
// synchronizer drains it once per tick.
type CommandQueue struct {
	mu       sync.Mutex
	commands []Command
}

// NewCommandQueue creates an empty CommandQueue.
//
// Returns:
//   - *CommandQueue: the new queue
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Push appends a command to the queue.
//
// Parameters:
//   - cmd: the command to enqueue
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmd)
}

// Drain removes and returns every queued command in arrival order.
//
// Returns:
//   - []Command: the queued commands, nil if the queue was empty
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.commands) == 0 {
		return nil
	}
	out := q.commands
	q.commands = nil
	return out
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}
