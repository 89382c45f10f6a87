package madrigal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/maroda/madrigal/cycle"
	Mo "github.com/maroda/madrigal/obvy"
	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Ms "github.com/maroda/madrigal/server"
	Mt "github.com/maroda/madrigal/types"
)

const (
	screenGutter = 4
	labelWidth   = 10
)

// TempoStep is how far + and - move the tempo, in cycles per second
var TempoStep = cycle.New(1, 16)

// View is the transport monitor: the terminal screen,
// the HTTP API and the websocket stream all hang off it.
type View struct {
	MU           sync.Mutex        // State locks to read data
	Engine       Ms.Madrigal       // the transport being driven
	Activity     *Ms.Activity      // per sound timelines
	Output       Mp.OutputAdapter  // the engine's outputs, for system info
	Sliders      *Mpat.SliderBank  // live values the sheet reads
	Samples      *Mp.SampleBank    // loaded sample maps, nil when none
	Hub          *Hub              // websocket trigger stream
	Rate         func() int64      // triggers per second
	Screen       tcell.Screen      // the screen itself, nil when headless
	Stats        *Mo.StatsInternal // Internal status for prometheus
	Supervisor   *RefreshSupervisor
	Sheet        string // name of the playing sheet
	server       *http.Server
	SelectMe     string // Selected sound with MouseClick
	ShowMe       bool   // Display sound count
	SelectSlider int    // slider moved by the arrow keys
	quit         chan struct{}
	quitOnce     sync.Once
}

// ViewConfig is what NewView needs from the caller
type ViewConfig struct {
	Engine  *Ms.Engine
	Sliders *Mpat.SliderBank
	Hub     *Hub
	Sheet   string
	Screen  tcell.Screen // nil for a headless view
}

// NewView wires a View to a running engine.
// The screen, when given, must already be initialised.
func NewView(c ViewConfig) (*View, error) {
	if c.Engine == nil {
		slog.Error("Could not get an engine for display")
		return nil, errors.New("engine not found")
	}
	if c.Sliders == nil {
		c.Sliders = Mpat.NewSliderBank()
	}

	view := &View{
		Engine:   c.Engine,
		Activity: c.Engine.Activity,
		Output:   c.Engine.Output,
		Sliders:  c.Sliders,
		Samples:  c.Engine.Samples,
		Hub:      c.Hub,
		Rate:     c.Engine.TriggerRate,
		Screen:   c.Screen,
		Stats:    c.Engine.Stats,
		Sheet:    c.Sheet,
		quit:     make(chan struct{}),
	}
	view.NewRefreshSupervisor()

	if view.Screen != nil {
		defStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
		view.Screen.SetStyle(defStyle)
		view.Screen.EnableMouse()
		view.UpdateScreen()
	}

	return view, nil
}

// Done is closed once the view has been asked to quit
func (v *View) Done() <-chan struct{} {
	v.MU.Lock()
	defer v.MU.Unlock()
	if v.quit == nil {
		v.quit = make(chan struct{})
	}
	return v.quit
}

// Quit asks the view to stop, it is safe to call more than once
func (v *View) Quit() {
	v.Done()
	v.quitOnce.Do(func() {
		close(v.quit)
		if v.Screen != nil {
			v.Screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	})
}

// CalcTimeseriesY figures out where to draw the timeline of the nth sound
func (v *View) CalcTimeseriesY(index, gutter int) int {
	return gutter + index
}

// DrawTimeseries displays the current timeline for a sound
func (v *View) DrawTimeseries(x, y int, name string) {
	runes := v.Activity.GetDisplay(name)
	width, _ := v.GetScreenSize()

	for runeIndex, r := range runes {
		if x+runeIndex >= width-2 {
			break
		}
		if r == 0 {
			r = ' '
		}

		// Choose color based on the rune (intensity)
		var style tcell.Style
		switch r {
		case '▁':
			style = tcell.StyleDefault.Foreground(tcell.ColorSeaGreen)
		case '▂':
			style = tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen)
		case '▃':
			style = tcell.StyleDefault.Foreground(tcell.ColorLightSeaGreen)
		case '▄':
			style = tcell.StyleDefault.Foreground(tcell.ColorDarkTurquoise)
		case '▅':
			style = tcell.StyleDefault.Foreground(tcell.ColorMediumTurquoise)
		case '▆':
			style = tcell.StyleDefault.Foreground(tcell.ColorTurquoise)
		case '▇':
			style = tcell.StyleDefault.Foreground(tcell.ColorLightGreen)
		case '█':
			style = tcell.StyleDefault.Foreground(tcell.ColorAquaMarine)
		default:
			style = tcell.StyleDefault
		}

		v.Screen.SetContent(x+runeIndex, y, r, nil, style)
	}
}

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	row := y1
	col := x1
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the View
func (v *View) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)

	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
}

// TransportLine is the status row across the top
func (v *View) TransportLine() string {
	state := v.Engine.State()
	rate := int64(0)
	if v.Rate != nil {
		rate = v.Rate()
	}
	return fmt.Sprintf("%s  cycle %s  cps %s  fired %d  rate %d/s  epoch %d",
		stateSymbol(state.State), state.Cycle, state.CPS, v.Engine.Fired(), rate, state.Epoch)
}

func stateSymbol(s Mt.TransportState) string {
	switch s {
	case Mt.Running:
		return "▶ " + s.String()
	case Mt.Paused:
		return "‖ " + s.String()
	default:
		return "■ " + s.String()
	}
}

// DrawCycleBar fills the second row in proportion to the position inside the cycle
func (v *View) DrawCycleBar(width int, position string) {
	pos, err := cycle.Parse(position)
	if err != nil {
		return
	}
	barW := width - 4
	fill := int(pos.CyclePos().Float64() * float64(barW))
	style := tcell.StyleDefault.Background(tcell.ColorDarkSlateBlue)
	WriteBar(v.Screen, 2, 2, 2+fill, 3, style)
}

// DrawTransportView draws the whole monitor with tcell
func (v *View) DrawTransportView() {
	// This is the border of the box
	width, height := v.GetScreenSize()

	// Obtain a lock and grab needed display data
	v.MU.Lock()
	showMe := v.ShowMe
	selectMe := v.SelectMe
	selectSlider := v.SelectSlider
	sheet := v.Sheet
	v.MU.Unlock()

	// Draw basic elements
	v.DrawViewBorder(width-2, height-1)
	v.DrawText(2, 1, width-2, 1, v.TransportLine())
	v.DrawCycleBar(width, v.Engine.State().Cycle)

	// one line per sound
	names := v.Activity.Names()
	for i, name := range names {
		y := v.CalcTimeseriesY(i, screenGutter)
		if y >= height-3 {
			break
		}
		label := name
		if len(label) > labelWidth-2 {
			label = label[:labelWidth-2]
		}
		v.DrawText(2, y, labelWidth+1, y, label)
		v.DrawTimeseries(labelWidth+2, y, name)
	}

	// sliders below the timelines
	if v.Sliders != nil {
		values := v.Sliders.Values()
		y := v.CalcTimeseriesY(len(names)+1, screenGutter)
		for i, name := range v.Sliders.Names() {
			if y+i >= height-3 {
				break
			}
			marker := " "
			if i == selectSlider {
				marker = ">"
			}
			v.DrawText(2, y+i, width-2, y+i, fmt.Sprintf("%s %s %.3f", marker, name, values[name]))
		}
	}

	// A MouseClick has happened on a timeline, show the sound and its count
	if showMe {
		label := fmt.Sprintf("... %s: %d triggers ...", selectMe, v.Activity.Count(selectMe))
		v.DrawText(4, height-2, width, height-2, label)
	}

	v.DrawText(1, height-1, width, height+10, "/space/ play-pause | /s/ stop | /+ -/ tempo | /ESC/ to quit")
	if sheet != "" {
		v.DrawText(width-12-len(sheet)-3, height-1, width, height+10, sheet)
	}
	v.DrawText(width-12, height-1, width, height+10, "MADRIGAL")
}

// Running Loop to handle events
func (v *View) handleKeyBoardEvent() {
	for {
		ev := v.Screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			if !v.HandleKey(ev) {
				return
			}
			v.UpdateScreen()
		case *tcell.EventMouse:
			// Button1 is Left Mouse Button
			if ev.Buttons() == tcell.Button1 {
				v.HandleMouseClick(ev.Position())
			}
		}
	}
}

// HandleKey runs one key press against the transport.
// It returns false when the key asks to quit.
func (v *View) HandleKey(ev *tcell.EventKey) bool {
	// Catch quit and exit
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}

	var err error
	switch ev.Key() {
	case tcell.KeyTab:
		if v.Sliders == nil {
			break
		}
		v.MU.Lock()
		if n := len(v.Sliders.Names()); n > 0 {
			v.SelectSlider = (v.SelectSlider + 1) % n
		}
		v.MU.Unlock()
	case tcell.KeyUp:
		v.nudgeSlider(1)
	case tcell.KeyDown:
		v.nudgeSlider(-1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			err = v.TogglePlay()
		case 's':
			err = v.Engine.Stop()
		case '+', '=':
			err = v.changeTempo(TempoStep)
		case '-':
			err = v.changeTempo(TempoStep.Neg())
		}
	}
	if err != nil {
		slog.Warn("Key ignored", slog.String("key", ev.Name()), slog.Any("error", err))
	}
	return true
}

// TogglePlay starts a stopped transport, pauses a running one, resumes a paused one
func (v *View) TogglePlay() error {
	switch v.Engine.State().State {
	case Mt.Running:
		return v.Engine.Pause()
	case Mt.Paused:
		return v.Engine.Resume()
	default:
		return v.Engine.Start()
	}
}

func (v *View) changeTempo(delta cycle.Fraction) error {
	cps, err := cycle.Parse(v.Engine.State().CPS)
	if err != nil {
		return err
	}
	return v.Engine.SetCPS(cps.Add(delta))
}

func (v *View) nudgeSlider(n int) {
	if v.Sliders == nil {
		return
	}
	v.MU.Lock()
	selected := v.SelectSlider
	v.MU.Unlock()

	names := v.Sliders.Names()
	if selected >= len(names) {
		return
	}
	s, err := v.Sliders.Get(names[selected])
	if err != nil {
		return
	}
	s.Nudge(n)
}

func (v *View) HandleMouseClick(x, y int) {
	// Lock display for updates
	v.MU.Lock()
	defer v.MU.Unlock()

	// Assume there is no label so the last one is cleared.
	v.ShowMe = false

	// Check for a click on any timeline
	width, _ := v.GetScreenSize()
	for i, name := range v.Activity.Names() {
		yTS := v.CalcTimeseriesY(i, screenGutter)
		if y == yTS && x >= 1 && x <= width-2 {
			v.SelectMe = name
			v.ShowMe = true
			return
		}
	}
}

// Refresh closes an activity step and redraws
func (v *View) Refresh() {
	v.Activity.Step()
	if v.Screen != nil {
		v.UpdateScreen()
	}
}

// GetScreenSize provides the terminal size for drawing
func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// ResizeScreen redraws after terminal changes
func (v *View) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

func (v *View) UpdateScreen() {
	v.Screen.Clear()
	v.DrawTransportView()
	v.Screen.Show()
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// Serve runs the HTTP API on addr until Shutdown
func (v *View) Serve(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: v.Handler(),
	}
	v.MU.Lock()
	v.server = server
	v.MU.Unlock()

	slog.Info("Starting Madrigal web server...", slog.String("Port", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start web server", slog.Any("Error", err))
		return err
	}
	return nil
}

// Shutdown stops the HTTP API, if it is running
func (v *View) Shutdown() error {
	v.MU.Lock()
	server := v.server
	v.MU.Unlock()
	if server == nil {
		return nil
	}
	return server.Close()
}

// Run is called by the CLI: it refreshes the screen, serves the API
// when addr is set, and reads the keyboard until the user quits.
// The caller owns the engine and closes it afterwards.
func (v *View) Run(addr string) error {
	// Panic recovery and logging
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in run loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()

	v.Supervisor.Start()
	defer v.Supervisor.Stop()

	if addr != "" {
		go v.Serve(addr)
		defer v.Shutdown()
	}

	if v.Screen == nil {
		<-v.Done()
		return nil
	}

	slog.Info("Starting transport view")
	v.handleKeyBoardEvent()
	v.Quit()
	v.Screen.Fini()
	return nil
}
