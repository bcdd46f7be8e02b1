package waiter

import "fmt"

// State is a transaction confirmation lifecycle state.
type State uint8

// Lifecycle states. Submitted, Polling and BlockPending are intermediate,
// everything else is final.
const (
	Submitted State = iota
	Polling
	BlockPending
	BlockValidated
	RejectedByNode
	StatusTimeout
	NextBlockTimeout
	BlockRejected
	BlockInvalid
)

var stateNames = map[State]string{
	Submitted:        "submitted",
	Polling:          "polling",
	BlockPending:     "block_pending",
	BlockValidated:   "block_validated",
	RejectedByNode:   "rejected_by_node",
	StatusTimeout:    "status_timeout",
	NextBlockTimeout: "next_block_timeout",
	BlockRejected:    "block_rejected",
	BlockInvalid:     "block_invalid",
}

// String implements the stringer interface.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// ParseState converts state name back to State.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

// IsFinal returns true for terminal states.
func (s State) IsFinal() bool {
	return s >= BlockValidated
}

// IsSuccess returns true if the transaction is confirmed.
func (s State) IsSuccess() bool {
	return s == BlockValidated
}
