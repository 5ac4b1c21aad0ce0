// Package example holds the demonstration function shipped with the
// project template.
package example

// Sum returns a + b. Overflow follows Go's native int wraparound.
func Sum(a, b int) int {
	return a + b
}
