// Package console renders the terminal session on a text terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"metroterminal/internal/app/session"
	"metroterminal/internal/domain/metro"

	"github.com/gookit/color"
	"golang.org/x/term"
)

const DefaultWidth = 80

// Width reports the width of the terminal behind fd, or DefaultWidth when
// fd is not a terminal.
func Width(fd int) int {
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Console writes notifications as they happen and full snapshots on demand.
// It satisfies both ports.Notifier and ports.AudioPlayer.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	width int

	colorStatus  color.Style
	colorDenied  color.Style
	colorItem    color.Style
	colorSubtle  color.Style
	colorRadio   color.Style
	colorHazard  color.Style
	colorActive  color.Style

	playing string
}

func New(out io.Writer, width int) *Console {
	if out == nil {
		out = os.Stdout
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return &Console{
		out:         out,
		width:       width,
		colorStatus: color.Style{color.FgCyan, color.OpBold},
		colorDenied: color.Style{color.FgRed, color.OpBold},
		colorItem:   color.Style{color.FgMagenta},
		colorSubtle: color.Style{color.FgGray},
		colorRadio:  color.Style{color.FgYellow},
		colorHazard: color.Style{color.FgRed},
		colorActive: color.Style{color.FgGreen, color.OpBold},
	}
}

func (c *Console) Status(text string) {
	c.println(c.colorStatus.Sprint("> " + text))
}

func (c *Console) HistoryChanged() {}

func (c *Console) ResourcesChanged() {}

func (c *Console) ToolChanged(tool metro.ToolID, state metro.ToolState) {
	style := c.colorSubtle
	if state == metro.ToolActive {
		style = c.colorActive
	}
	c.println(style.Sprintf("[%s] %s", tool, state))
}

func (c *Console) ReplacementNeeded(tool metro.ToolID, needed bool) {
	if needed {
		c.println(c.colorDenied.Sprintf("[%s] needs replacement", tool))
	}
}

func (c *Console) GeigerTick(reading metro.GeigerReading) {
	c.println(c.colorHazard.Sprintf("~ %.2f (%s)", reading.Value, reading.Level))
}

func (c *Console) Play(ref string) error {
	c.mu.Lock()
	c.playing = ref
	c.mu.Unlock()
	c.println(c.colorRadio.Sprint("♪ " + ref))
	return nil
}

func (c *Console) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = ""
}

func (c *Console) NowPlaying() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Render prints a full snapshot: counters, tools, exposure, Geiger state
// and the history newest first.
func (c *Console) Render(snap session.Snapshot) {
	var b strings.Builder
	rule := strings.Repeat("─", c.width)

	fmt.Fprintln(&b, c.colorSubtle.Sprint(rule))
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n",
		c.colorItem.Sprint("battery"), snap.Resources.Battery,
		c.colorItem.Sprint("filter"), snap.Resources.Filter,
		c.colorItem.Sprint("water"), snap.Resources.Water)

	for _, t := range snap.Tools {
		line := fmt.Sprintf("%-10s %-8s", t.ID, t.State)
		if t.Depletable {
			line += fmt.Sprintf(" %3ds", t.RemainingSeconds)
		}
		if t.Dim {
			line += " dim"
		}
		switch {
		case t.NeedsReplacement:
			fmt.Fprintln(&b, c.colorDenied.Sprint(line+" (replace "+t.ReplacementSource+")"))
		case t.State == metro.ToolActive:
			fmt.Fprintln(&b, c.colorActive.Sprint(line))
		default:
			fmt.Fprintln(&b, line)
		}
	}

	levels := make([]string, 0, len(snap.Exposure))
	for level := range snap.Exposure {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		fmt.Fprintf(&b, "%s %s %.1fs\n", c.colorHazard.Sprint("exposure"), level, float64(snap.Exposure[level])/1000)
	}

	if snap.Geiger.Active {
		fmt.Fprintf(&b, "%s %s %.0f m  %.2f\n", c.colorHazard.Sprint("geiger"), orSafe(snap.Geiger.Level), snap.Geiger.Distance, snap.Geiger.Value)
	}

	fmt.Fprintln(&b, c.colorSubtle.Sprint(rule))
	for _, e := range snap.History {
		fmt.Fprintln(&b, c.historyLine(e))
	}
	if snap.Status != "" {
		fmt.Fprintln(&b, c.colorStatus.Sprint("> "+snap.Status))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, b.String())
}

func (c *Console) historyLine(e metro.HistoryEntry) string {
	at := e.At.Format("15:04:05")
	if e.Title != "" {
		line := fmt.Sprintf("%s %s: %s", at, e.Title, e.Content)
		return c.colorRadio.Sprint(c.truncate(line))
	}
	return c.truncate(fmt.Sprintf("%s %s", at, e.Code))
}

func (c *Console) truncate(s string) string {
	r := []rune(s)
	if len(r) <= c.width {
		return s
	}
	if c.width <= 1 {
		return string(r[:c.width])
	}
	return string(r[:c.width-1]) + "…"
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func orSafe(level string) string {
	if level == "" {
		return "safe"
	}
	return level
}

func (c *Console) Help() {
	c.println(c.colorSubtle.Sprint(HelpText))
}
