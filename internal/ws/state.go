package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/keylight/internal/action"
	"github.com/coreman2200/keylight/internal/app"
	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	diag "github.com/coreman2200/keylight/internal/diagnostics"
	"github.com/coreman2200/keylight/internal/ease"
	"github.com/coreman2200/keylight/internal/status"
)

const writeWait = 200 * time.Millisecond

type State struct {
	mu   sync.RWMutex
	Core *app.Core

	// Driver names the transport in use, reported by /health.
	Driver string

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	writeMu     sync.Mutex
	testing     diag.Kind
}

func NewState(core *app.Core, driver string) *State {
	s := &State{
		Core:        core,
		Driver:      driver,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
	core.OnReject = s.pushDiag
	return s
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// RunPreview sends the current frame to every /ws client hz times a second
// until ctx is done.
func (s *State) RunPreview(ctx context.Context, hz int) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, hz)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		frame := s.Core.Engine.Frame()
		rgb := make([]byte, 0, len(frame)*3)
		for _, c := range frame {
			rgb = append(rgb, c.R, c.G, c.B)
		}

		s.mu.Lock()
		s.frameID++
		was := s.testing
		s.testing = s.Core.Testing()
		s.mu.Unlock()
		if was != diag.None && s.testing == diag.None {
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(was)})
		}
		s.broadcastFrame(rgb)
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.diagClients)
}

func (s *State) register(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	set[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		rep := reply{OK: true}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			err = fmt.Errorf("bad command: %w", err)
			rep = reply{Error: s.Core.Reject("control", err, nil).Error()}
		} else if err := s.apply(cmd); err != nil {
			rep = reply{Error: s.Core.Reject(cmd.Cmd, err, map[string]any{"cmd": cmd.Cmd}).Error()}
		}
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":  s.frameID,
		"uptime_s":  time.Since(s.startTime).Seconds(),
		"count":     s.Core.Layout.Count(),
		"rows":      s.Core.Layout.Rows,
		"cols":      s.Core.Layout.Cols,
		"backlight": s.Core.Layout.Backlight,
		"ticks":     s.Core.Engine.Ticks(),
		"intensity": s.Core.Engine.Intensity(),
		"layer":     s.Core.Status.CurrentLayer(),
		"driver":    s.Driver,
		"phase":     s.Core.TX.Phase().String(),
		"tx":        s.Core.TX.Stats(),
		"testing":   string(s.Core.Testing()),
	}
	if tr, ok := s.Core.Transport.(interface{ Errors() uint64 }); ok {
		resp["tx_errors"] = tr.Errors()
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) HandleDump(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.Core.Dump(w); err != nil {
		log.Debug().Err(err).Msg("write dump")
	}
}

func (s *State) broadcastFrame(rgb []byte) {
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	s.mu.RLock()
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: rgb})
	s.mu.RUnlock()
	s.writeAll(s.clients, b)
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.writeAll(s.diagClients, b)
}

func (s *State) writeAll(set map[*websocket.Conn]bool, b []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write message")
		}
	}
}

// byteField checks a JSON number that must fit a byte.
func byteField(name string, v int) (uint8, error) {
	if err := bounds.Check(name, v, 256); err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func (c Command) hsv() (color.HSV, error) {
	if err := bounds.Check("hue", c.H, color.HueRange); err != nil {
		return color.HSV{}, err
	}
	sat, err := byteField("saturation", c.S)
	if err != nil {
		return color.HSV{}, err
	}
	val, err := byteField("value", c.V)
	if err != nil {
		return color.HSV{}, err
	}
	return color.HSV{H: uint16(c.H), S: sat, V: val}, nil
}

func (c Command) mode() (ease.Mode, error) {
	if c.Mode == "" {
		return ease.Idle, nil
	}
	return ease.ParseMode(c.Mode)
}

func (c Command) stepRound() (step, round uint8, err error) {
	if step, err = byteField("step", c.Step); err != nil {
		return
	}
	round, err = byteField("round", c.Round)
	return
}

func (s *State) apply(c Command) error {
	core := s.Core
	switch c.Cmd {
	case "key":
		if err := core.Layout.CheckKey(c.Row, c.Col); err != nil {
			return err
		}
		core.OnKeyEvent(c.Row, c.Col, c.Pressed != 0)

	case "action":
		e, err := c.entry()
		if err != nil {
			return err
		}
		return core.ConfigureAction(int(c.Pressed), c.Row, c.Col, e)

	case "group":
		g, err := byteField("group", c.Group)
		if err != nil {
			return err
		}
		return core.ConfigureGroup(c.Row, c.Col, g)

	case "light":
		if len(c.Name) != 1 {
			return fmt.Errorf("light kind %q: %w", c.Name, bounds.ErrOutOfRange)
		}
		return core.SetLight(c.Layer, c.Row, c.Col, status.Kind(c.Name[0]))

	case "palette":
		v, err := c.hsv()
		if err != nil {
			return err
		}
		return core.SetPalette(c.Index, v)

	case "intensity":
		v, err := byteField("intensity", c.Value)
		if err != nil {
			return err
		}
		core.SetIntensity(v)

	case "led":
		v, err := c.hsv()
		if err != nil {
			return err
		}
		m, err := c.mode()
		if err != nil {
			return err
		}
		step, round, err := c.stepRound()
		if err != nil {
			return err
		}
		return core.SetLED(c.ID, v, m, step, round)

	case "raw":
		var rgb [3]uint8
		for i, ch := range []int{c.R, c.G, c.B} {
			v, err := byteField("channel", ch)
			if err != nil {
				return err
			}
			rgb[i] = v
		}
		return core.Engine.SetRaw(c.ID, color.RGB{R: rgb[0], G: rgb[1], B: rgb[2]})

	case "keys":
		return core.SetKeysRaw(c.Colors)

	case "backlight":
		return core.SetBacklightRaw(c.Colors)

	case "desktop":
		d, err := byteField("desktop", c.Value)
		if err != nil {
			return err
		}
		return core.Status.SetDesktop(c.Screen, d)

	case "mute":
		core.Status.SetMute(c.On)

	case "micmute":
		core.Status.SetMicMute(c.On)

	case "volume":
		if err := bounds.Check("volume", c.Value, 0x10000); err != nil {
			return err
		}
		core.Status.SetVolume(uint16(c.Value))

	case "layer":
		return core.Status.SetLayer(c.Value)

	case "rainbow":
		n, err := byteField("times", c.Times)
		if err != nil {
			return err
		}
		core.Engine.Rainbow(n)

	case "dim":
		core.Engine.DimAll()

	case "rotate":
		core.Engine.Rotate(c.Dir)

	case "test":
		if err := core.RunTest(diag.Kind(c.Name)); err != nil {
			return err
		}
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: c.Name})

	case "save":
		return core.Save()

	case "load":
		return core.Load()

	default:
		return fmt.Errorf("unknown command %q", c.Cmd)
	}
	return nil
}

func (c Command) entry() (action.Entry, error) {
	col, err := byteField("color", c.Color)
	if err != nil {
		return action.Entry{}, err
	}
	m, err := c.mode()
	if err != nil {
		return action.Entry{}, err
	}
	step, round, err := c.stepRound()
	if err != nil {
		return action.Entry{}, err
	}
	g, err := byteField("group", c.Group)
	if err != nil {
		return action.Entry{}, err
	}
	return action.Entry{Color: col, Mode: m, Step: step, Round: round, Group: g}, nil
}
