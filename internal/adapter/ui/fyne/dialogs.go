package fyne

import (
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// clipExtensions are the file types the clip loader decodes.
var clipExtensions = []string{".wav", ".aif", ".aiff", ".mp3", ".ogg", ".flac"}

// FileDialog is a helper for picking an audio file to play.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, logger *slog.Logger, callback func(string)) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		filePath := reader.URI().Path()
		d.logger.Debug("file picked", slog.String("path", filePath), slog.String("ext", strings.ToLower(reader.URI().Extension())))
		if d.callback != nil {
			d.callback(filePath)
		}
	}, d.window)
	open.SetFilter(storage.NewExtensionFileFilter(clipExtensions))
	open.Show()
}
