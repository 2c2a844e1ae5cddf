package notifications

import (
	"fmt"
	"io"

	"github.com/azure/mention-tracker/internal/models"
)

// ConsoleNotifier writes the plain-text digest to w
type ConsoleNotifier struct {
	w io.Writer
}

// Ensure ConsoleNotifier implements Notifier
var _ Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a notifier for local runs
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) SendDigest(digest *models.Digest) error {
	_, err := fmt.Fprint(c.w, buildEmailText(digest))
	return err
}
