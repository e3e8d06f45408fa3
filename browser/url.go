package browser

import "strings"

// ResolveURL joins a path onto a base URL. A path that is already absolute
// is returned unchanged.
func ResolveURL(base, path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
