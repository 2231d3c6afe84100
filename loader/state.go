package loader

import "fmt"

// State is the loading progress of one tile location. It only ever moves
// forward: NotLoaded → PreviewLoaded → CrispLoaded.
type State uint8

const (
	// StateNotLoaded means no render has been published for the tile.
	StateNotLoaded State = iota

	// StatePreviewLoaded means the cheap preview pass has been published.
	StatePreviewLoaded

	// StateCrispLoaded means the final high-fidelity pass has been
	// published. Terminal.
	StateCrispLoaded
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not-loaded"
	case StatePreviewLoaded:
		return "preview-loaded"
	case StateCrispLoaded:
		return "crisp-loaded"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}
