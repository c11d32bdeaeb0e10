package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop shows an OS notification (notification center, libnotify, toast).
type Desktop struct {
	Title string

	// send defaults to beeep.Notify.
	send func(title, message string, icon any) error
}

func NewDesktop(title string) *Desktop {
	return &Desktop{Title: title, send: beeep.Notify}
}

func (d *Desktop) Notify(_ context.Context, text string) error {
	if err := d.send(d.Title, text, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
