// Package x11 talks RandR to the X server: it enumerates connectors into a
// layout model and executes configuration transactions against the live
// screen.
package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and core X resources.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection establishes a connection to the X server and initializes the
// RandR extension.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("RandR extension unavailable: %w", err)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// WatchChanges subscribes to RandR change notifications on the root window
// and invokes fn for every screen, CRTC or output change reported by the
// server. The event loop runs until the connection closes. fn runs on the
// event goroutine; events arriving while it runs are queued.
func (c *Connection) WatchChanges(fn func()) error {
	mask := uint16(randr.NotifyMaskScreenChange |
		randr.NotifyMaskCrtcChange |
		randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
		return fmt.Errorf("failed to subscribe to RandR events: %w", err)
	}

	go func() {
		for {
			ev, err := c.XUtil.Conn().WaitForEvent()
			if ev == nil && err == nil {
				return
			}
			if err != nil {
				continue
			}
			switch ev.(type) {
			case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
				fn()
			}
		}
	}()
	return nil
}

// Close cleanly disconnects from the X server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
