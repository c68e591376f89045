// Package presets loads personas, quick phrases and notebook commands from a
// YAML file and applies them to the store, optionally reloading on change.
package presets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/zrl37/crystallize/internal/models"
)

// reloadDelay debounces editors that write a file in several steps.
const reloadDelay = 200 * time.Millisecond

// File is the on-disk layout of a presets file.
type File struct {
	Roles    []models.Role        `yaml:"roles"`
	Phrases  []models.QuickPhrase `yaml:"phrases"`
	Commands []models.QuickPhrase `yaml:"commands"`
}

// Applier receives a loaded preset batch. *store.Store satisfies it.
type Applier interface {
	ApplyPresets(roles []models.Role, phrases, commands []models.QuickPhrase) error
}

// Load reads and decodes the presets file at path. Environment variables in
// the file are expanded before decoding.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("presets: parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply loads path and hands the batch to dst.
func Apply(path string, dst Applier) (*File, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := dst.ApplyPresets(f.Roles, f.Phrases, f.Commands); err != nil {
		return nil, fmt.Errorf("presets: apply %s: %w", path, err)
	}
	return f, nil
}

// Watch reapplies path whenever it changes, until ctx is cancelled. The
// parent directory is watched so atomic renames are seen. A reload that
// fails leaves the previously applied presets in place.
func Watch(ctx context.Context, path string, dst Applier, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("presets: watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("presets: watching", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("presets: watcher stopped")
			return nil

		case <-fire:
			fire = nil
			f, err := Apply(abs, dst)
			if err != nil {
				logger.Warn("presets: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("presets: reloaded",
				slog.Int("roles", len(f.Roles)),
				slog.Int("phrases", len(f.Phrases)),
				slog.Int("commands", len(f.Commands)))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("presets: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
