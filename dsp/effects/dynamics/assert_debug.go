//go:build dynamicsdebug

package dynamics

import "fmt"

// unreachableType panics in debug builds so invalid curve types surface
// during development.
func unreachableType(t Type) {
	panic(fmt.Sprintf("dynamics: unreachable processor type %d", int(t)))
}
