package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/crytic/solcexport/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger describes a Logger that is disabled by default and is instantiated when the CLI starts. Each
// module/package should create its own sub-logger. This allows to create unique logging instances depending on the use
// case.
var GlobalLogger = NewLogger(zerolog.Disabled)

// Logger describes a custom logging object that can log events to any arbitrary channel in structured, unstructured,
// or unstructured and colorized format.
type Logger struct {
	// level describes the log level
	level zerolog.Level

	// fields describes the key-value context attached to every event emitted by this logger.
	fields []contextField

	// sinks describes the set of writers where log output will go. Sub-loggers share the sinks of their parent so that
	// writers added to the GlobalLogger after a sub-logger was created are still honored.
	sinks *writerSinks
}

// contextField describes a single key-value pair of logger context.
type contextField struct {
	key   string
	value string
}

// writerSinks describes the writers that a Logger and all of its sub-loggers emit to.
type writerSinks struct {
	// unstructuredWriters describes the writers which will receive plain-text, non-colorized output.
	unstructuredWriters []io.Writer

	// unstructuredColorWriters describes the writers which will receive plain-text, colorized output.
	unstructuredColorWriters []io.Writer

	// structuredWriters describes the writers which will receive JSON output.
	structuredWriters []io.Writer

	// lock guards the writer lists.
	lock sync.Mutex
}

// LogFormat describes what format to log in
type LogFormat string

const (
	// STRUCTURED describes that logging should be done in structured JSON format
	STRUCTURED LogFormat = "structured"
	// UNSTRUCTURED describes that logging should be done in an unstructured format
	UNSTRUCTURED LogFormat = "unstructured"
)

// StructuredLogInfo describes a key-value mapping that can be used to log structured data
type StructuredLogInfo map[string]any

// NewLogger will create a new Logger object with a specific log level. Writers can be attached with AddWriter.
func NewLogger(level zerolog.Level) *Logger {
	return &Logger{
		level: level,
		sinks: &writerSinks{},
	}
}

// NewSubLogger will create a new Logger with unique context in the form of a key-value pair. The expected use of this
// function is for each package to have their own unique logger so that parsing of logs is "grep-able" based on some key
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	fields := make([]contextField, 0, len(l.fields)+1)
	fields = append(fields, l.fields...)
	fields = append(fields, contextField{key: key, value: value})
	return &Logger{
		level:  l.level,
		fields: fields,
		sinks:  l.sinks,
	}
}

// AddWriter will add a writer to the list of channels where log output will be sent. If the writer was already added
// with the same format and coloring, this is a no-op.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat, colored bool) {
	l.sinks.lock.Lock()
	defer l.sinks.lock.Unlock()

	writers := l.sinks.writersFor(format, colored)
	for _, w := range *writers {
		if w == writer {
			return
		}
	}
	*writers = append(*writers, writer)
}

// RemoveWriter will remove a writer from the list of writers that the logger manages. If the writer does not exist,
// this function is a no-op
func (l *Logger) RemoveWriter(writer io.Writer, format LogFormat, colored bool) {
	l.sinks.lock.Lock()
	defer l.sinks.lock.Unlock()

	writers := l.sinks.writersFor(format, colored)
	for i, w := range *writers {
		if w == writer {
			*writers = append((*writers)[:i], (*writers)[i+1:]...)
			return
		}
	}
}

// writersFor returns a pointer to the writer list for the given format and coloring. Caller must hold the lock.
func (s *writerSinks) writersFor(format LogFormat, colored bool) *[]io.Writer {
	if format == STRUCTURED {
		return &s.structuredWriters
	}
	if colored {
		return &s.unstructuredColorWriters
	}
	return &s.unstructuredWriters
}

// Level will get the log level of the Logger
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel will update the log level of the Logger
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
}

// Trace is a wrapper function that will log a trace event
func (l *Logger) Trace(args ...any) {
	l.log(zerolog.TraceLevel, args...)
}

// Debug is a wrapper function that will log a debug event
func (l *Logger) Debug(args ...any) {
	l.log(zerolog.DebugLevel, args...)
}

// Info is a wrapper function that will log an info event
func (l *Logger) Info(args ...any) {
	l.log(zerolog.InfoLevel, args...)
}

// Warn is a wrapper function that will log a warning event
func (l *Logger) Warn(args ...any) {
	l.log(zerolog.WarnLevel, args...)
}

// Error is a wrapper function that will log an error event.
func (l *Logger) Error(args ...any) {
	l.log(zerolog.ErrorLevel, args...)
}

// Panic is a wrapper function that will log a panic event and then panic.
func (l *Logger) Panic(args ...any) {
	l.log(zerolog.PanicLevel, args...)
}

// log builds the messages for every configured channel and sends the event off at the provided level.
func (l *Logger) log(level zerolog.Level, args ...any) {
	// Build the messages and retrieve any error or associated structured log info
	colorMsg, plainMsg, err, info := buildMsgs(args...)

	// Snapshot our writers so a concurrent AddWriter/RemoveWriter does not race with logging
	l.sinks.lock.Lock()
	structured := append([]io.Writer(nil), l.sinks.structuredWriters...)
	unstructured := append([]io.Writer(nil), l.sinks.unstructuredWriters...)
	colored := append([]io.Writer(nil), l.sinks.unstructuredColorWriters...)
	l.sinks.lock.Unlock()

	// WithLevel never panics on its own, so every channel receives a panic event before we unwind below.
	debug := l.level <= zerolog.DebugLevel || level == zerolog.PanicLevel
	if len(structured) > 0 {
		logger := l.withFields(zerolog.New(zerolog.MultiLevelWriter(structured...)).With().Timestamp()).Level(l.level)
		emit(logger.WithLevel(level), err, info, debug, plainMsg)
	}
	if len(unstructured) > 0 {
		writer := setupDefaultFormatting(zerolog.ConsoleWriter{Out: zerolog.MultiLevelWriter(unstructured...), NoColor: true}, l.level)
		logger := l.withFields(zerolog.New(writer).With()).Level(l.level)
		emit(logger.WithLevel(level), err, info, debug, plainMsg)
	}
	if len(colored) > 0 {
		writer := setupDefaultFormatting(zerolog.ConsoleWriter{Out: zerolog.MultiLevelWriter(colored...), NoColor: !colors.Enabled()}, l.level)
		logger := l.withFields(zerolog.New(writer).With()).Level(l.level)
		emit(logger.WithLevel(level), err, info, debug, colorMsg)
	}

	if level == zerolog.PanicLevel {
		if err != nil {
			panic(fmt.Sprintf("%s: %v", plainMsg, err))
		}
		panic(plainMsg)
	}
}

// withFields attaches the logger's context fields to the provided zerolog context and returns the resulting logger.
func (l *Logger) withFields(ctx zerolog.Context) zerolog.Logger {
	for _, field := range l.fields {
		ctx = ctx.Str(field.key, field.value)
	}
	return ctx.Logger()
}

// emit chains the error and structured log info to the event and sends it off with the provided message. If debug is
// true, a stack trace is added as well.
func emit(event *zerolog.Event, err error, info StructuredLogInfo, debug bool, msg string) {
	// Note that even if err is nil, there will not be a panic here
	event = event.Err(err)
	if debug && err != nil {
		event = event.Stack()
	}
	if info != nil {
		event = event.Any("info", info)
	}
	event.Msg(msg)
}

// buildMsgs describes a function that takes in a variadic list of arguments of any type and returns two strings and,
// optionally, an error and a StructuredLogInfo object. The first string will be a colorized-string that can be used for
// console logging while the second string will be a non-colorized one that can be used for file/structured logging.
// The error and the StructuredLogInfo can be used to add additional context to log messages
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	// Guard clause
	if len(args) == 0 {
		return "", "", nil, nil
	}

	// Initialize the base color context, the string buffers and the structured log info object
	colorCtx := colors.Reset
	colorOutput := make([]string, 0)
	plainOutput := make([]string, 0)
	var info StructuredLogInfo
	var err error

	// Iterate through each argument in the list and switch on type
	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			// If the argument is a color function, switch the current color context
			colorCtx = t
		case StructuredLogInfo:
			// Note that only one structured log info can be provided for each log message
			info = t
		case error:
			// Note that only one error can be provided for each log message
			err = t
		case *LogBuffer:
			// Flatten buffers so their color context is honored
			c, p, _, _ := buildMsgs(t.Args()...)
			colorOutput = append(colorOutput, c)
			plainOutput = append(plainOutput, p)
		default:
			// In the base case, append the object to the two string buffers. The console string buffer will have the
			// current color context applied to it.
			colorOutput = append(colorOutput, colorCtx(t))
			plainOutput = append(plainOutput, fmt.Sprintf("%v", t))
		}
	}

	return strings.Join(colorOutput, ""), strings.Join(plainOutput, ""), err, info
}

// setupDefaultFormatting will update the console logger's formatting to the solcexport standard
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	// Get rid of the timestamp for console output
	writer.FormatTimestamp = func(i interface{}) string {
		return ""
	}

	// We will define a custom format for each level
	writer.FormatLevel = func(i any) string {
		levelStr, _ := i.(string)
		parsed, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return levelStr
		}

		// Switch on the level and return a custom, colored string
		switch parsed {
		case zerolog.TraceLevel:
			return colors.CyanBold(zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return colors.BlueBold(zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return colors.GreenBold(colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return colors.YellowBold(zerolog.LevelWarnValue)
		case zerolog.ErrorLevel:
			return colors.RedBold(zerolog.LevelErrorValue)
		case zerolog.FatalLevel:
			return colors.RedBold(zerolog.LevelFatalValue)
		case zerolog.PanicLevel:
			return colors.RedBold(zerolog.LevelPanicValue)
		default:
			return levelStr
		}
	}

	// If we are above debug level, we want to get rid of the service/run context when logging to console
	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{SERVICE_KEY, RUN_ID_KEY}
	}

	return writer
}
