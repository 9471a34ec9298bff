package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/surfacetest/internal/ability"
	"github.com/olivier-w/surfacetest/internal/media"
	"github.com/olivier-w/surfacetest/internal/medialib"
	"github.com/olivier-w/surfacetest/internal/player"
	"github.com/olivier-w/surfacetest/internal/resource"
	"github.com/olivier-w/surfacetest/internal/surface"
	"github.com/olivier-w/surfacetest/internal/util"
)

const (
	appTitle = "surfacetest"
	// lines below the list reserved for the detail panel
	detailHeight = 10
	seekStep     = 5 * time.Second
)

var (
	errNoLibrary = errors.New("media library unavailable")
	errNoSurface = errors.New("surface binding unavailable")
)

type resourceItem struct {
	name  string
	state resource.State
}

func (i resourceItem) Title() string { return i.name }

func (i resourceItem) Description() string {
	if !playable(i.name) {
		return i.state.String() + "  no preview"
	}
	return i.state.String()
}

func (i resourceItem) FilterValue() string { return i.name }

// heldResource is the descriptor the page currently holds.
type heldResource struct {
	name     string
	desc     *resource.Descriptor
	meta     player.Metadata
	duration time.Duration
	probeErr error
}

// IndexModel is the index page: the bundled resource list and the details of
// the acquired descriptor.
type IndexModel struct {
	actx *ability.Context

	list     list.Model
	input    textinput.Model
	findMode bool
	width    int
	held     *heldResource
	preview  *player.Player
	spring   progressSpring
	found    *foundMsg
	rendered *renderedMsg
	status   string
	err      error
	quitting bool

	// rendering is set while a render reads the held descriptor's fd. The
	// descriptor is not released until the render reports back.
	rendering   bool
	quitPending bool
}

// NewIndex builds the index page. Resource names are loaded by Init.
func NewIndex(actx *ability.Context) IndexModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(nil, delegate, 80, 14)
	l.Title = appTitle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "display name"
	ti.CharLimit = 255
	ti.Width = 40

	return IndexModel{
		actx:   actx,
		list:   l,
		input:  ti,
		width:  80,
		spring: newProgressSpring(),
	}
}

func (m IndexModel) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(appTitle), m.loadNamesCmd())
}

func (m IndexModel) loadNamesCmd() tea.Cmd {
	actx := m.actx
	return func() tea.Msg {
		if actx == nil || actx.Resources == nil {
			return namesLoadedMsg{}
		}
		names, err := actx.Resources.Names(actx.Ctx)
		return namesLoadedMsg{names: names, err: err}
	}
}

func (m IndexModel) acquireCmd(name, previous string) tea.Cmd {
	actx := m.actx
	return func() tea.Msg {
		if previous != "" {
			_ = actx.Resources.Release(actx.Ctx, previous)
		}
		res := actx.Resources.Acquire(actx.Ctx, name)
		msg := acquiredMsg{name: name, previous: previous, result: res}
		if !res.OK() {
			return msg
		}
		msg.duration, msg.probeErr = player.Probe(res.Descriptor.Section(), name)
		msg.meta = player.ReadMetadata(res.Descriptor.Section(), name)
		return msg
	}
}

func (m IndexModel) releaseCmd(name string) tea.Cmd {
	actx := m.actx
	return func() tea.Msg {
		return releasedMsg{name: name, err: actx.Resources.Release(actx.Ctx, name)}
	}
}

func (m IndexModel) findCmd(displayName string) tea.Cmd {
	actx := m.actx
	return func() tea.Msg {
		if actx.Library == nil {
			return foundMsg{displayName: displayName, err: errNoLibrary}
		}
		asset, err := medialib.FindFile(actx.Ctx, actx.Library, "", displayName)
		return foundMsg{displayName: displayName, asset: asset, err: err}
	}
}

func (m IndexModel) renderCmd(h heldResource) tea.Cmd {
	actx := m.actx
	return func() tea.Msg {
		msg := renderedMsg{name: h.name}
		if actx.Binding == nil || actx.Surfaces == nil {
			msg.err = errNoSurface
			return msg
		}

		sink := &surface.MeterSink{}
		id := actx.Surfaces.Register(sink)
		defer actx.Surfaces.Unregister(id)

		out, err := os.CreateTemp("", "surfacetest-*.wav")
		if err != nil {
			msg.err = fmt.Errorf("create output: %w", err)
			return msg
		}
		defer out.Close()
		msg.out = out.Name()

		in := surface.AVFileDescriptor{FD: h.desc.FD, Offset: h.desc.Offset, Length: h.desc.Length}
		msg.result, msg.err = actx.Binding.SetSurfaceID(actx.Ctx, strconv.FormatUint(id, 10), in, int(out.Fd()))
		msg.frames = sink.Frames()
		msg.peak = sink.Peak()
		return msg
	}
}

func (m IndexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.findMode {
		return m.updateFind(msg)
	}

	switch msg := msg.(type) {
	case namesLoadedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("list resources: %w", msg.err)
			return m, nil
		}
		cmd := m.list.SetItems(m.items(msg.names))
		return m, cmd

	case acquiredMsg:
		if msg.previous != "" && m.held != nil && m.held.name == msg.previous {
			m.held = nil
		}
		if !msg.result.OK() {
			m.err = fmt.Errorf("acquire %s (%s): %w", msg.name, msg.result.Reason(), msg.result.Err)
		} else {
			m.err = nil
			m.rendered = nil
			m.held = &heldResource{
				name:     msg.name,
				desc:     msg.result.Descriptor,
				meta:     msg.meta,
				duration: msg.duration,
				probeErr: msg.probeErr,
			}
			m.status = "acquired " + msg.name
		}
		cmd := m.refreshItems()
		return m, cmd

	case releasedMsg:
		if m.held != nil && m.held.name == msg.name {
			m.held = nil
			m.rendered = nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.status = "released " + msg.name
		}
		cmd := m.refreshItems()
		return m, cmd

	case foundMsg:
		m.err = msg.err
		if msg.err == nil {
			m.found = &msg
		}
		return m, nil

	case renderedMsg:
		m.rendering = false
		if m.quitPending {
			return m.quit()
		}
		m.err = msg.err
		if msg.err == nil {
			m.rendered = &msg
			m.status = "rendered " + msg.name
		}
		return m, nil

	case tickMsg:
		if m.preview == nil {
			return m, nil
		}
		select {
		case <-m.preview.Done():
			m.stopPreview()
			m.status = "preview finished"
			return m, nil
		default:
		}
		m.spring.step(m.previewRatio())
		return m, tickCmd()

	case tea.KeyMsg:
		if isQuit(msg) {
			return m.quit()
		}
		switch msg.String() {
		case "enter":
			item, ok := m.list.SelectedItem().(resourceItem)
			if !ok {
				return m, nil
			}
			if m.rendering {
				m.status = "render in progress"
				return m, nil
			}
			previous := ""
			if m.held != nil && m.held.name != item.name {
				previous = m.held.name
				m.stopPreview()
			}
			return m, m.acquireCmd(item.name, previous)
		case "x":
			if m.held == nil {
				return m, nil
			}
			if m.rendering {
				m.status = "render in progress"
				return m, nil
			}
			m.stopPreview()
			return m, m.releaseCmd(m.held.name)
		case " ":
			return m.togglePreview()
		case "o":
			if m.held == nil {
				m.status = "acquire a resource first"
				return m, nil
			}
			if m.rendering {
				return m, nil
			}
			m.rendering = true
			return m, m.renderCmd(*m.held)
		case "left", "h", "right", "l":
			if m.preview == nil {
				break
			}
			delta := seekStep
			if k := msg.String(); k == "left" || k == "h" {
				delta = -seekStep
			}
			m.preview.Seek(delta)
			m.spring.step(m.previewRatio())
			return m, nil
		case "/":
			m.findMode = true
			m.input.Focus()
			return m, textinput.Blink
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(max(msg.Height-detailHeight, 4))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m IndexModel) updateFind(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			m.findMode = false
			m.input.Reset()
			m.input.Blur()
			if name == "" {
				return m, nil
			}
			return m, m.findCmd(name)
		case "esc":
			m.findMode = false
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			m.findMode = false
			m.input.Blur()
			return m.quit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m IndexModel) togglePreview() (tea.Model, tea.Cmd) {
	if m.preview != nil {
		m.preview.TogglePause()
		return m, nil
	}
	if m.held == nil {
		m.status = "acquire a resource first"
		return m, nil
	}
	if !playable(m.held.name) {
		m.err = fmt.Errorf("preview %s: %w (supported: %s)", m.held.name, player.ErrUnsupportedFormat, media.SupportedExtsList())
		return m, nil
	}

	p, err := player.New(m.held.desc.Section(), m.held.name)
	if err != nil {
		m.err = fmt.Errorf("preview %s: %w", m.held.name, err)
		return m, nil
	}
	m.preview = p
	m.spring.reset()
	m.err = nil
	return m, tickCmd()
}

func (m *IndexModel) stopPreview() {
	if m.preview == nil {
		return
	}
	m.preview.Close()
	m.preview = nil
	m.spring.reset()
}

// quit shuts the page down, or defers that until a pending render is done.
func (m IndexModel) quit() (tea.Model, tea.Cmd) {
	if m.rendering {
		m.quitPending = true
		m.status = "finishing render"
		return m, nil
	}
	m.shutdown()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// shutdown stops playback and releases every descriptor still open.
func (m *IndexModel) shutdown() {
	m.quitting = true
	m.stopPreview()
	if m.actx != nil && m.actx.Resources != nil {
		m.actx.Resources.ReleaseAll(m.actx.Ctx)
	}
	m.held = nil
}

func (m IndexModel) previewRatio() float64 {
	if m.preview == nil {
		return 0
	}
	dur := m.preview.Duration()
	if dur <= 0 {
		return 0
	}
	return float64(m.preview.Position()) / float64(dur)
}

func playable(name string) bool {
	return media.IsSupportedExt(filepath.Ext(name))
}

func (m IndexModel) items(names []string) []list.Item {
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		items = append(items, resourceItem{name: name, state: m.state(name)})
	}
	return items
}

func (m *IndexModel) refreshItems() tea.Cmd {
	cur := m.list.Items()
	items := make([]list.Item, 0, len(cur))
	for _, it := range cur {
		if ri, ok := it.(resourceItem); ok {
			ri.state = m.state(ri.name)
			it = ri
		}
		items = append(items, it)
	}
	return m.list.SetItems(items)
}

func (m IndexModel) state(name string) resource.State {
	if m.actx == nil || m.actx.Resources == nil {
		return resource.Unopened
	}
	return m.actx.Resources.State(name)
}

func (m IndexModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString("  " + m.permissionLine() + "\n")

	if m.held != nil {
		b.WriteString(m.heldView())
	} else {
		b.WriteString("  " + detailStyle.Render("no descriptor held") + "\n")
	}

	if m.found != nil {
		b.WriteString("  " + m.foundLine() + "\n")
	}
	if m.rendered != nil {
		r := m.rendered
		b.WriteString("  " + statusStyle.Render(fmt.Sprintf("surface %s  frames %d  -> %s", r.result, r.frames, r.out)) + "\n")
		b.WriteString("  " + renderProgressBar(float64(r.peak)/32768, min(m.width, 40)) + "\n")
	}

	if m.findMode {
		b.WriteString("  " + statusStyle.Render("Find by display name:") + " " + m.input.View() + "\n")
		b.WriteString("  " + helpStyle.Render("enter search  esc back") + "\n")
		return b.String()
	}

	if m.err != nil {
		b.WriteString("  " + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("  " + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("  " + helpStyle.Render(helpText(m.held != nil, m.preview != nil)) + "\n")
	return b.String()
}

func (m IndexModel) permissionLine() string {
	if m.actx != nil && m.actx.MediaGranted() {
		return statusStyle.Render("media permissions granted")
	}
	return errorStyle.Render("media permissions not granted")
}

func (m IndexModel) heldView() string {
	h := m.held
	var b strings.Builder

	title := h.meta.Title
	if h.meta.Artist != "" {
		title += " - " + h.meta.Artist
	}
	b.WriteString("  " + titleStyle.Render(title) + "\n")
	b.WriteString("  " + detailStyle.Render(renderDescriptor(h.desc)) + "\n")
	b.WriteString("  " + detailStyle.Render("lease "+h.desc.Lease) + "\n")

	total := "--:--"
	if h.probeErr == nil {
		if s, err := util.ShowTimeMillis(h.duration.Milliseconds()); err == nil {
			total = s
		}
	}

	if m.preview == nil {
		b.WriteString("  " + timeStyle.Render("duration "+total) + "\n")
		return b.String()
	}

	state := "playing"
	if m.preview.Paused() {
		state = "paused"
	}
	pos := util.FormatDuration(m.preview.Position())
	timeStr := timeStyle.Render(pos + " / " + total)
	barWidth := m.width - lipgloss.Width(timeStr) - 6
	b.WriteString("  " + renderProgressBar(m.spring.pos, barWidth) + spaces(1) + timeStr + "  " + statusStyle.Render(state) + "\n")
	return b.String()
}

func (m IndexModel) foundLine() string {
	f := m.found
	if f.asset == nil {
		return detailStyle.Render(fmt.Sprintf("no media asset named %q", f.displayName))
	}
	a := f.asset
	dur, err := util.ShowTimeMillis(a.Duration)
	if err != nil {
		dur = "--:--"
	}
	return detailStyle.Render(fmt.Sprintf("%s  %s  %s  %s", a.URI, a.DisplayName, a.MediaType, dur))
}
