// Package patch applies guarded edits to site source files.
package patch

import "strings"

// EnsureImport prepends line to content unless marker already occurs somewhere in it.
// It reports whether content changed. Applying it twice yields the same text as once.
func EnsureImport(content, marker, line string) (string, bool) {
	if strings.Contains(content, marker) {
		return content, false
	}
	return line + "\n" + content, true
}
