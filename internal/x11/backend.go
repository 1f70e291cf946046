package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/xarrange/xarrange/internal/diff"
	"github.com/xarrange/xarrange/internal/layout"
)

// Backend executes catalog reads and configuration transactions over RandR.
type Backend struct {
	conn *Connection
	lim  diff.Limits
}

// NewBackend wraps an established connection and caches the screen size
// range, which is fixed for the lifetime of the connection.
func NewBackend(conn *Connection) (*Backend, error) {
	rng, err := randr.GetScreenSizeRange(conn.XUtil.Conn(), conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query screen size range: %w", err)
	}
	return &Backend{
		conn: conn,
		lim: diff.Limits{
			MinScreen: layout.Size{Width: int(rng.MinWidth), Height: int(rng.MinHeight)},
			MaxScreen: layout.Size{Width: int(rng.MaxWidth), Height: int(rng.MaxHeight)},
		},
	}, nil
}

// Limits returns the server's configuration limits as of the last snapshot.
func (b *Backend) Limits() diff.Limits {
	return b.lim
}

// Snapshot enumerates connected outputs into a layout model, in the server's
// discovery order. Disconnected connectors are omitted.
func (b *Backend) Snapshot() (*layout.Model, error) {
	c := b.conn.XUtil.Conn()

	res, err := randr.GetScreenResourcesCurrent(c, b.conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	b.lim.MaxActiveOutputs = len(res.Crtcs)

	primary, err := randr.GetOutputPrimary(c, b.conn.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get primary output: %w", err)
	}

	modesByID := make(map[randr.Mode]randr.ModeInfo, len(res.Modes))
	for _, mi := range res.Modes {
		modesByID[randr.Mode(mi.Id)] = mi
	}

	var outputs []*layout.Output
	for _, output := range res.Outputs {
		oi, err := randr.GetOutputInfo(c, output, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output info: %w", err)
		}
		if oi.Connection != randr.ConnectionConnected {
			continue
		}

		o := &layout.Output{
			ID:       layout.OutputID(output),
			Name:     string(oi.Name),
			Product:  edidProductName(b.conn.XUtil, output),
			Primary:  output == primary.Output,
			MMWidth:  int(oi.MmWidth),
			MMHeight: int(oi.MmHeight),
		}
		for _, id := range oi.Modes {
			mi, ok := modesByID[id]
			if !ok {
				continue
			}
			o.Modes = append(o.Modes, layout.Mode{
				Width:   int(mi.Width),
				Height:  int(mi.Height),
				Refresh: modeRefresh(mi),
			})
		}

		if oi.Crtc != 0 {
			ci, err := randr.GetCrtcInfo(c, oi.Crtc, res.ConfigTimestamp).Reply()
			if err != nil {
				return nil, fmt.Errorf("failed to get crtc info: %w", err)
			}
			if mi, ok := modesByID[ci.Mode]; ok {
				o.Enabled = true
				o.X = int(ci.X)
				o.Y = int(ci.Y)
				m := layout.Mode{
					Width:   int(mi.Width),
					Height:  int(mi.Height),
					Refresh: modeRefresh(mi),
				}
				o.Mode = &m
				o.Rotation, o.Reflection = fromRandrRotation(ci.Rotation)
			}
		}
		outputs = append(outputs, o)
	}

	return layout.New(outputs, b.lim.MinScreen, b.lim.MaxScreen), nil
}

// Apply executes a transaction's operations in order. The first failing
// operation aborts the rest; the caller is responsible for restoring a
// known-good state.
func (b *Backend) Apply(tx *diff.Transaction) error {
	c := b.conn.XUtil.Conn()

	res, err := randr.GetScreenResourcesCurrent(c, b.conn.Root).Reply()
	if err != nil {
		return fmt.Errorf("failed to get screen resources: %w", err)
	}

	st, err := newApplyState(b.conn, res)
	if err != nil {
		return err
	}

	for _, op := range tx.Ops {
		switch op := op.(type) {
		case diff.Disable:
			err = st.disable(op)
		case diff.SetScreenSize:
			err = randr.SetScreenSizeChecked(c, b.conn.Root,
				uint16(op.Width), uint16(op.Height),
				uint32(op.MMWidth), uint32(op.MMHeight)).Check()
			if err != nil {
				err = fmt.Errorf("failed to set screen size %dx%d: %w", op.Width, op.Height, err)
			}
		case diff.Configure:
			err = st.configure(op)
		case diff.SetPrimary:
			err = randr.SetOutputPrimaryChecked(c, b.conn.Root, randr.Output(op.Output)).Check()
			if err != nil {
				err = fmt.Errorf("failed to set primary output: %w", err)
			}
		default:
			err = fmt.Errorf("unknown operation %T", op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyState tracks crtc occupancy while a transaction runs, so freed crtcs
// can be reassigned within the same transaction.
type applyState struct {
	conn    *Connection
	res     *randr.GetScreenResourcesCurrentReply
	infos   map[randr.Output]*randr.GetOutputInfoReply
	crtcFor map[randr.Output]randr.Crtc
	busy    map[randr.Crtc]randr.Output
}

func newApplyState(conn *Connection, res *randr.GetScreenResourcesCurrentReply) (*applyState, error) {
	st := &applyState{
		conn:    conn,
		res:     res,
		infos:   make(map[randr.Output]*randr.GetOutputInfoReply, len(res.Outputs)),
		crtcFor: make(map[randr.Output]randr.Crtc),
		busy:    make(map[randr.Crtc]randr.Output),
	}
	for _, output := range res.Outputs {
		oi, err := randr.GetOutputInfo(conn.XUtil.Conn(), output, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output info: %w", err)
		}
		st.infos[output] = oi
		if oi.Crtc != 0 {
			st.crtcFor[output] = oi.Crtc
			st.busy[oi.Crtc] = output
		}
	}
	return st, nil
}

func (st *applyState) disable(op diff.Disable) error {
	output := randr.Output(op.Output)
	crtc, ok := st.crtcFor[output]
	if !ok {
		return nil // already off
	}
	reply, err := randr.SetCrtcConfig(st.conn.XUtil.Conn(), crtc,
		xproto.TimeCurrentTime, st.res.ConfigTimestamp,
		0, 0, 0, randr.RotationRotate0, nil).Reply()
	if err != nil {
		return fmt.Errorf("failed to disable %s: %w", op.Name, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("failed to disable %s: status %d", op.Name, reply.Status)
	}
	delete(st.crtcFor, output)
	delete(st.busy, crtc)
	return nil
}

func (st *applyState) configure(op diff.Configure) error {
	output := randr.Output(op.Output)
	oi, ok := st.infos[output]
	if !ok {
		return fmt.Errorf("unknown output %s", op.Name)
	}

	mode, err := st.findModeID(oi, op.Mode)
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", op.Name, err)
	}
	crtc, err := st.pickCrtc(output, oi)
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", op.Name, err)
	}

	reply, err := randr.SetCrtcConfig(st.conn.XUtil.Conn(), crtc,
		xproto.TimeCurrentTime, st.res.ConfigTimestamp,
		int16(op.X), int16(op.Y), mode,
		toRandrRotation(op.Rotation, op.Reflection),
		[]randr.Output{output}).Reply()
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", op.Name, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("failed to configure %s: status %d", op.Name, reply.Status)
	}
	st.crtcFor[output] = crtc
	st.busy[crtc] = output
	return nil
}

// pickCrtc keeps the output's current crtc when it has one, otherwise takes
// the first of its candidate crtcs no other output is driving.
func (st *applyState) pickCrtc(output randr.Output, oi *randr.GetOutputInfoReply) (randr.Crtc, error) {
	if crtc, ok := st.crtcFor[output]; ok {
		return crtc, nil
	}
	for _, crtc := range oi.Crtcs {
		if _, taken := st.busy[crtc]; !taken {
			return crtc, nil
		}
	}
	return 0, fmt.Errorf("no free crtc")
}

// findModeID resolves a mode by dimensions and refresh rate against the
// output's supported mode list.
func (st *applyState) findModeID(oi *randr.GetOutputInfoReply, want layout.Mode) (randr.Mode, error) {
	for _, mi := range st.res.Modes {
		if !supportsMode(oi, randr.Mode(mi.Id)) {
			continue
		}
		m := layout.Mode{
			Width:   int(mi.Width),
			Height:  int(mi.Height),
			Refresh: modeRefresh(mi),
		}
		if m.Equal(want) {
			return randr.Mode(mi.Id), nil
		}
	}
	return 0, fmt.Errorf("no mode matching %s", want)
}

func supportsMode(oi *randr.GetOutputInfoReply, id randr.Mode) bool {
	for _, m := range oi.Modes {
		if m == id {
			return true
		}
	}
	return false
}

// modeRefresh computes the vertical refresh rate in Hz from the mode's
// timing parameters. Doublescan modes scan every line twice, interlaced
// modes deliver half a frame per vertical cycle.
func modeRefresh(mi randr.ModeInfo) float64 {
	vtotal := float64(mi.Vtotal)
	if mi.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if mi.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	if mi.DotClock == 0 || mi.Htotal == 0 || vtotal == 0 {
		return 0
	}
	return float64(mi.DotClock) / (float64(mi.Htotal) * vtotal)
}

func toRandrRotation(r layout.Rotation, refl layout.Reflection) uint16 {
	var bits uint16
	switch r {
	case layout.RotationLeft:
		bits = randr.RotationRotate90
	case layout.RotationInverted:
		bits = randr.RotationRotate180
	case layout.RotationRight:
		bits = randr.RotationRotate270
	default:
		bits = randr.RotationRotate0
	}
	switch refl {
	case layout.ReflectX:
		bits |= randr.RotationReflectX
	case layout.ReflectY:
		bits |= randr.RotationReflectY
	case layout.ReflectXY:
		bits |= randr.RotationReflectX | randr.RotationReflectY
	}
	return bits
}

func fromRandrRotation(bits uint16) (layout.Rotation, layout.Reflection) {
	r := layout.RotationNormal
	switch {
	case bits&randr.RotationRotate90 != 0:
		r = layout.RotationLeft
	case bits&randr.RotationRotate180 != 0:
		r = layout.RotationInverted
	case bits&randr.RotationRotate270 != 0:
		r = layout.RotationRight
	}
	refl := layout.ReflectNone
	switch {
	case bits&randr.RotationReflectX != 0 && bits&randr.RotationReflectY != 0:
		refl = layout.ReflectXY
	case bits&randr.RotationReflectX != 0:
		refl = layout.ReflectX
	case bits&randr.RotationReflectY != 0:
		refl = layout.ReflectY
	}
	return r, refl
}
