package schema

import "fmt"

// CompileError reports a keyword whose value has the wrong shape.
type CompileError struct {
	Address string // Address of the schema node
	Keyword string // Keyword path within the node, if any
	Message string
}

func (e *CompileError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("%s: %s: %s", e.Address, e.Keyword, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Address, e.Message)
}
