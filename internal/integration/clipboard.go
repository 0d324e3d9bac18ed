package integration

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard reads and writes text on the system clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
	Available() bool
}

type systemClipboard struct{}

// NewClipboard returns the system clipboard.
func NewClipboard() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("reading clipboard: no clipboard utility available")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("reading clipboard: %w", err)
	}
	return text, nil
}

func (systemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("writing clipboard: no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

func (systemClipboard) Available() bool {
	return !clipboard.Unsupported
}
