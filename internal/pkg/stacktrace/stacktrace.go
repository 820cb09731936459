// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of a
// debug.Stack dump that points into an internal package.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		end := idx + strings.IndexByte(line[idx:]+" ", ' ')
		frame := line[:end]

		at := strings.Index(frame, marker)
		if at == -1 {
			continue
		}
		paths = append(paths, frame[at+1:])
	}
	return paths
}
