// Package stacktrace trims debug.Stack output down to frames from this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame that
// points into an internal package, outermost call last.
func InternalPaths(stack []byte) []string {
	var frames []string
	for line := range strings.Lines(string(stack)) {
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " +0x")
		_, rel, ok := strings.Cut(loc, "/internal/")
		if !ok || !strings.Contains(rel, ".go:") {
			continue
		}
		frames = append(frames, "internal/"+rel)
	}
	return frames
}
