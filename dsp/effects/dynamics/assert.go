//go:build !dynamicsdebug

package dynamics

// unreachableType is called when a Curve with an unknown Type is evaluated.
// Release builds fall back to the identity curve.
func unreachableType(Type) {}
