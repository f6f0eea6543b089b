package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore wraps the console core and mirrors warn+ entries to the
// async DB writer.
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= zapcore.WarnLevel {
		var ip, userID string
		for _, f := range fields {
			switch f.Key {
			case "ip":
				ip = f.String
			case "user_id":
				userID = f.String
			}
		}

		c.writer.AddLog(LogEntry{
			Level:     entry.Level,
			Message:   entry.Message,
			IpAddress: ip,
			UserID:    userID,
			Caller:    entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
