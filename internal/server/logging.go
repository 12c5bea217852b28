package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/config"
)

var logLevelRank = map[config.LogLevel]int{
	config.LogError: 0,
	config.LogWarn:  1,
	config.LogInfo:  2,
	config.LogDebug: 3,
	config.LogTrace: 4,
}

func messageTypeFor(level config.LogLevel) protocol.MessageType {
	switch level {
	case config.LogError:
		return protocol.MessageTypeError
	case config.LogWarn:
		return protocol.MessageTypeWarning
	case config.LogInfo:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}

// logMessage sends message to the client's window/logMessage, gated by the
// logLevel initialization option: messages more verbose than the configured
// threshold never leave the process. ctx may be nil (e.g. before
// initialize completes), in which case the message only reaches the local
// commonlog backend.
func (s *Server) logMessage(ctx *glsp.Context, level config.LogLevel, message string) {
	if ctx == nil || logLevelRank[level] > logLevelRank[s.cfg.LogLevel] {
		return
	}
	ctx.Notify(protocol.ServerWindowLogMessage, protocol.LogMessageParams{
		Type:    messageTypeFor(level),
		Message: message,
	})
}

// logf logs message through the local commonlog logger (stderr, same as
// the teacher's direct GetLoggerf usage) and, when ctx is available, also
// forwards it to the client via window/logMessage.
func (s *Server) logf(ctx *glsp.Context, level config.LogLevel, format string, args ...any) {
	switch level {
	case config.LogError:
		s.logger.Errorf(format, args...)
	case config.LogWarn:
		s.logger.Warningf(format, args...)
	case config.LogInfo:
		s.logger.Infof(format, args...)
	default:
		s.logger.Debugf(format, args...)
	}
	s.logMessage(ctx, level, fmt.Sprintf(format, args...))
}

// logTrace sends a $/logTrace notification gated by the trace value
// negotiated through initialize/$/setTrace: off suppresses it entirely,
// messages sends message alone, verbose also attaches the detailed payload.
func (s *Server) logTrace(ctx *glsp.Context, message, verbose string) {
	if ctx == nil {
		return
	}
	switch protocol.GetTraceValue() {
	case protocol.TraceValueOff:
		return
	case protocol.TraceValueMessages:
		ctx.Notify(protocol.ServerLogTrace, protocol.LogTraceParams{Message: message})
	default:
		v := verbose
		ctx.Notify(protocol.ServerLogTrace, protocol.LogTraceParams{Message: message, Verbose: &v})
	}
}
