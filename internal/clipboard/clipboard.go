// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"strings"

	"github.com/atotto/clipboard"
)

// Write copies s to the clipboard, normalizing line endings first.
func Write(s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(s)
}

type unsupportedError struct{}

func (unsupportedError) Error() string {
	return "clipboard: no clipboard utility available (install wl-copy, xclip or xsel)"
}

var ErrUnsupported error = unsupportedError{}
