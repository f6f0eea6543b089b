package logger

import (
	"context"
	"fmt"
	"time"

	"go-forum/internal/config"
	"go-forum/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry is the data handed from the zap core to the worker.
type LogEntry struct {
	Level     zapcore.Level
	Message   string
	IpAddress string
	UserID    string
	Caller    string
}

type logRecord struct {
	AppId     string    `bson:"app_id"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	IpAddress string    `bson:"ip_address,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	Caller    string    `bson:"caller,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// DBLogWriter drains entries from a buffered channel into the logs
// collection. A full channel drops the entry instead of blocking.
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
	appId   string
}

func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000),
		appId:   cfg.AppId,
	}

	go writer.processLogs()

	return writer
}

func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := logRecord{
			AppId:     w.appId,
			Level:     entry.Level.String(),
			Message:   entry.Message,
			IpAddress: entry.IpAddress,
			UserID:    entry.UserID,
			Caller:    entry.Caller,
			CreatedAt: time.Now().UTC(),
		}

		// Insert errors are swallowed so the app keeps running.
		w.db.Collection("logs").InsertOne(context.Background(), record)
	}
}
