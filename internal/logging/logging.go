// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"import.name/sjournal"
)

type Config struct {
	Journal bool // Write to the systemd journal instead of standard error.
	Debug   bool
}

func (c Config) level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Init returns some kind of logger on error.
func Init(c Config) (*slog.Logger, error) {
	if !c.Journal {
		log := New(os.Stderr, c)
		slog.SetDefault(log)
		return log, nil
	}

	opts := &sjournal.HandlerOptions{
		Delimiter:  sjournal.ColonDelimiter,
		TimeFormat: time.RFC3339Nano,
	}

	h, err := sjournal.NewHandler(opts)
	if err != nil {
		return slog.Default(), err
	}

	log := slog.New(withLevel(h, c.level()))
	slog.SetDefault(log)
	return log, nil
}

// leveled filters records below a minimum level before they reach the
// wrapped handler.
type leveled struct {
	slog.Handler
	level slog.Leveler
}

func withLevel(h slog.Handler, level slog.Leveler) slog.Handler {
	return leveled{h, level}
}

func (h leveled) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.Handler.Enabled(ctx, level)
}

func (h leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return leveled{h.Handler.WithAttrs(attrs), h.level}
}

func (h leveled) WithGroup(name string) slog.Handler {
	return leveled{h.Handler.WithGroup(name), h.level}
}

// New text logger.
func New(w io.Writer, c Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: c.level(),
	}))
}
