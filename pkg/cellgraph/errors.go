package cellgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every *GraphError unwraps to exactly one of these, so
// callers match with errors.Is regardless of the node involved.
var (
	// ErrCyclicDependency is raised when a cache, while recomputing, reads a
	// node that is already on the recompute stack.
	ErrCyclicDependency = errors.New("cellgraph: cyclic dependency")

	// ErrPositionNotFound is returned by positional collection operations
	// when the index is outside the current sequence.
	ErrPositionNotFound = errors.New("cellgraph: position not found")

	// ErrDanglingNode is raised when a handle refers to a freed slot.
	ErrDanglingNode = errors.New("cellgraph: dangling node")

	// ErrDoubleFree is raised when a node is disposed twice.
	ErrDoubleFree = errors.New("cellgraph: node disposed twice")

	// ErrWriteInCompute is raised when a cache recompute writes a variable.
	// Caches are pure functions of what they read.
	ErrWriteInCompute = errors.New("cellgraph: write during cache recompute")

	// ErrBudgetExceeded is raised when one commit runs more subscriptions
	// than the runtime's commit budget allows. This almost always means a
	// subscription keeps writing one of its own inputs.
	ErrBudgetExceeded = errors.New("cellgraph: commit budget exceeded")

	// ErrLoopClosed is returned by Loop.Do after Run has returned.
	ErrLoopClosed = errors.New("cellgraph: loop closed")
)

// Code identifies the class of a GraphError.
type Code string

const (
	CodeCycle          Code = "G001"
	CodeDangling       Code = "G002"
	CodeDoubleFree     Code = "G003"
	CodeWriteInCompute Code = "G004"
	CodeBudget         Code = "G005"
)

// GraphError is a fatal graph-invariant violation. It is raised with panic
// inside an update and recovered by the outermost Tx, which aborts the
// transaction and returns it.
type GraphError struct {
	// Code is a short stable identifier (e.g. "G001").
	Code Code

	// Node is the node the violation was detected on, if any.
	Node NodeID

	// Name is the diagnostic name of Node, if it has one.
	Name string

	// Path is the recompute chain for cycle errors, outermost first, ending
	// with the node that closed the cycle.
	Path []NodeID

	// Err is the sentinel this error unwraps to.
	Err error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Node != 0 {
		fmt.Fprintf(&b, " (node %d", e.Node)
		if e.Name != "" {
			fmt.Fprintf(&b, " %q", e.Name)
		}
		b.WriteString(")")
	}
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = fmt.Sprint(uint64(id))
		}
		b.WriteString(" path ")
		b.WriteString(strings.Join(parts, " -> "))
	}
	return b.String()
}

// Unwrap returns the sentinel for errors.Is support.
func (e *GraphError) Unwrap() error {
	return e.Err
}

func graphError(code Code, sentinel error, n *node, id NodeID) *GraphError {
	e := &GraphError{Code: code, Node: id, Err: sentinel}
	if n != nil {
		e.Name = n.name
	}
	return e
}
