package accesslog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AminuIsrael/seldon-core/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const timeFormat = "2006/01/02 15:04:05.000"

type AccessLogger interface {
	Log(ctx context.Context, entry *Entry)
}

type Options struct {
	// File is a path or /dev/stdout
	File    string
	Format  string
	Colored bool
}

func NewAccessLogger(name string, opts Options) (AccessLogger, error) {
	if opts.File == "" {
		return nil, errors.New("accesslog file is required")
	}

	var writer io.Writer = os.Stdout
	if opts.File != "/dev/stdout" {
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open access log %s", opts.File)
		}
		writer = file
	}

	return NewWriterLogger(name, writer, opts)
}

// NewWriterLogger returns a logger writing entries to writer.
func NewWriterLogger(name string, writer io.Writer, opts Options) (AccessLogger, error) {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.TimestampFieldName = "ts"

	switch opts.Format {
	case "text":
		label := "[" + name + "]"
		if opts.Colored {
			label = utils.Colorize(label, utils.ColorDarkGray)
		}
		out := consoleWriter(writer, opts.Colored)
		return &logger{zl: zerolog.New(out).With().Str("name", label).Logger(), text: true}, nil
	case "json":
		return &logger{zl: zerolog.New(writer).With().Str("name", name).Logger()}, nil
	}
	return nil, fmt.Errorf("invalid format: %s", opts.Format)
}

// consoleWriter prints "<ts> <name> <message>" lines.
func consoleWriter(w io.Writer, colored bool) zerolog.ConsoleWriter {
	out := zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       !colored,
		TimeFormat:    timeFormat,
		FieldsExclude: []string{"name"},
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			"name",
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
	}
	out.FormatLevel = func(interface{}) string { return "" }
	out.FormatFieldName = func(interface{}) string { return "" }
	return out
}

type logger struct {
	zl   zerolog.Logger
	text bool
}

func (l *logger) Log(ctx context.Context, entry *Entry) {
	e := l.zl.Log().Ctx(ctx).Timestamp()
	if l.text {
		e.Msg(entry.String())
		return
	}
	e.EmbedObject(entry).Send()
}
