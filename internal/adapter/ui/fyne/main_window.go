package fyne

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Window defaults.
const (
	AppName = "Soundstage"
	Width   = 520
	Height  = 420
)

// MainWindow is the desk window implementing the DeskView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All playback logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// DeskView methods may be called from any goroutine; widget updates are
// marshalled onto the UI thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	cueGrid      *fyneapp.Container
	emptyCues    *widget.Label
	muteCheck    *widget.Check
	pauseCheck   *widget.Check
	stopButton   *widget.Button
	volumeSlider *widget.Slider
	volumeLabel  *widget.Label
	activeLabel  *widget.Label
	eventLog     *widget.Label

	recent []string

	// syncing suppresses handler callbacks while the view is updated from events
	syncing bool

	closeOnce     sync.Once
	onBeforeClose func()

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates the desk window.
func NewMainWindow(app fyneapp.App) *MainWindow {
	w := &MainWindow{
		app: app,
	}

	w.window = app.NewWindow(AppName)
	w.buildUI()

	w.window.Resize(fyneapp.Size{
		Width:  Width,
		Height: Height,
	})

	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.window.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// SetOnBeforeClose registers fn to run when the user closes the window.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

func (w *MainWindow) buildUI() {
	w.emptyCues = widget.NewLabel("No sound bank loaded")
	w.cueGrid = container.NewGridWrap(fyneapp.NewSize(120, 40))

	w.muteCheck = widget.NewCheck("Mute all", nil)
	w.pauseCheck = widget.NewCheck("Pause all", nil)
	w.stopButton = widget.NewButtonWithIcon("Stop all", theme.MediaStopIcon(), nil)

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Step = 1
	w.volumeLabel = widget.NewLabel("100%")
	volumeHolder := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), w.volumeLabel, w.volumeSlider)

	w.activeLabel = widget.NewLabel("Active: 0")
	w.activeLabel.TextStyle = fyneapp.TextStyle{Bold: true}

	w.eventLog = widget.NewLabel("")
	w.eventLog.Wrapping = fyneapp.TextWrapWord

	controls := container.NewVBox(
		container.NewHBox(w.muteCheck, w.pauseCheck, w.stopButton, w.activeLabel),
		volumeHolder,
	)
	cues := container.NewVScroll(container.NewVBox(w.emptyCues, w.cueGrid))
	log := container.NewVScroll(w.eventLog)
	log.SetMinSize(fyneapp.NewSize(0, 120))

	w.window.SetContent(container.NewPadded(container.NewBorder(controls, log, nil, nil, cues)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.muteCheck.OnChanged = func(checked bool) {
		if !w.syncing {
			w.presenter.OnMuteToggled(checked)
		}
	}

	w.pauseCheck.OnChanged = func(checked bool) {
		if !w.syncing {
			w.presenter.OnPauseToggled(checked)
		}
	}

	w.stopButton.OnTapped = func() {
		w.presenter.OnStopAllClicked()
	}

	w.volumeSlider.OnChangeEnded = func(value float64) {
		w.presenter.OnMasterVolumeChanged(value)
	}
	w.volumeSlider.OnChanged = func(value float64) {
		w.volumeLabel.SetText(fmt.Sprintf("%.0f%%", value))
	}
}

func (w *MainWindow) createMenu() []*fyneapp.Menu {
	playFile := fyneapp.NewMenuItem("Play File…", func() {
		w.handlePlayFile()
	})

	openRecent := fyneapp.NewMenuItem("Play Recent", nil)
	items := make([]*fyneapp.MenuItem, 0, len(w.recent))
	for _, path := range w.recent {
		file := path
		items = append(items, fyneapp.NewMenuItem(filepath.Base(file), func() {
			w.playPath(file)
		}))
	}
	if len(items) == 0 {
		openRecent.Disabled = true
	} else {
		openRecent.ChildMenu = fyneapp.NewMenu("", items...)
	}

	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", playFile, openRecent, fyneapp.NewMenuItemSeparator(), exitMenu),
	}
}

func (w *MainWindow) handlePlayFile() {
	if w.presenter == nil {
		return
	}

	dialog := NewFileDialog(w.window, w.presenter.logger, w.playPath)
	dialog.Show()
}

func (w *MainWindow) playPath(path string) {
	if w.presenter == nil {
		return
	}
	if err := w.presenter.OnFileOpened(path); err != nil {
		w.ShowNotification("Error", fmt.Sprintf("Failed to open file: %v", err))
	}
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyM,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.muteCheck.SetChecked(!w.muteCheck.Checked)
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.pauseCheck.SetChecked(!w.pauseCheck.Checked)
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.nudgeVolume(5)
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.nudgeVolume(-5)
	})
}

func (w *MainWindow) nudgeVolume(delta float64) {
	v := min(100, max(0, w.volumeSlider.Value+delta))
	w.volumeSlider.SetValue(v)
	w.presenter.OnMasterVolumeChanged(v)
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		fyneapp.Do(w.window.Close)
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// DeskView interface implementation

// SetCues replaces the cue buttons.
func (w *MainWindow) SetCues(names []string) {
	fyneapp.Do(func() {
		w.cueGrid.RemoveAll()
		for _, name := range names {
			cue := name
			w.cueGrid.Add(widget.NewButton(cue, func() {
				if w.presenter != nil {
					w.presenter.OnCueClicked(cue)
				}
			}))
		}
		if len(names) == 0 {
			w.emptyCues.Show()
		} else {
			w.emptyCues.Hide()
		}
		w.cueGrid.Refresh()
	})
}

// SetActiveCount updates the active slot counter.
func (w *MainWindow) SetActiveCount(count int) {
	fyneapp.Do(func() {
		w.activeLabel.SetText(fmt.Sprintf("Active: %d", count))
	})
}

// SetMuteState updates the mute check without echoing back to the presenter.
func (w *MainWindow) SetMuteState(muted bool) {
	fyneapp.Do(func() {
		w.syncing = true
		w.muteCheck.SetChecked(muted)
		w.syncing = false
	})
}

// SetPauseState updates the pause check without echoing back to the presenter.
func (w *MainWindow) SetPauseState(paused bool) {
	fyneapp.Do(func() {
		w.syncing = true
		w.pauseCheck.SetChecked(paused)
		w.syncing = false
	})
}

// SetMasterVolume updates the master slider, in percent.
func (w *MainWindow) SetMasterVolume(percent float64) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = percent
		w.volumeSlider.Refresh()
		w.volumeLabel.SetText(fmt.Sprintf("%.0f%%", percent))
	})
}

// SetEventLog shows the most recent events, newest last.
func (w *MainWindow) SetEventLog(lines []string) {
	text := strings.Join(lines, "\n")
	fyneapp.Do(func() {
		w.eventLog.SetText(text)
	})
}

// SetRecentFiles rebuilds the Play Recent menu.
func (w *MainWindow) SetRecentFiles(paths []string) {
	recent := make([]string, len(paths))
	copy(recent, paths)
	fyneapp.Do(func() {
		w.recent = recent
		w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
	})
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

var _ DeskView = (*MainWindow)(nil)
