//go:build !unix

package utils

func openFileLimit() (uint64, bool) {
	return 0, false
}
