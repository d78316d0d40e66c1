// Package waitdep waits for a dependency store's files to become available
// on disk, driven by Linux kernel uevents rather than polling. This is
// useful when a dependency lives on a volume that is mounted asynchronously
// (a USB backup disk, a network share) after the process holding the new
// store has already started.
package waitdep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/s-urbaniak/uevent"
)

// Ready reports whether base's four store files all exist inside dir.
func Ready(dir, base string) bool {
	for _, ext := range []string{".dat", ".idx", ".dsc", ".hsh"} {
		if _, err := os.Stat(filepath.Join(dir, base+ext)); err != nil {
			return false
		}
	}
	return true
}

// isMountEvent reports whether a decoded uevent plausibly signals that a
// new block device finished becoming available, mirroring the add/change
// distinction device-mapper devices require: a "dm-" device is only truly
// ready on its "change" event, not its initial "add".
func isMountEvent(action, subsystem, devname string) bool {
	if subsystem != "block" {
		return false
	}
	if strings.HasPrefix(devname, "dm-") {
		return action == "change"
	}
	return action == "add"
}

// Wait blocks until dir/base's store files exist, or ctx is done. It checks
// once immediately (the dependency may already be present) and then again
// after every block-subsystem uevent that looks like a new device becoming
// ready, so it reacts the moment the backing volume is mounted instead of
// polling on a timer.
func Wait(ctx context.Context, dir, base string) error {
	if Ready(dir, base) {
		return nil
	}

	r, err := uevent.NewReader()
	if err != nil {
		return fmt.Errorf("uevent.NewReader: %w", err)
	}
	defer r.Close()
	dec := uevent.NewDecoder(r)

	events := make(chan struct{}, 1)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := dec.Decode()
			if err != nil {
				errs <- fmt.Errorf("uevent decode: %w", err)
				return
			}
			devname := ev.Vars["DEVNAME"]
			if !isMountEvent(ev.Action, ev.Subsystem, devname) {
				continue
			}
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	for {
		if Ready(dir, base) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case <-events:
		}
	}
}
