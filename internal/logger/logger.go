package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

var (
	debugMode bool
	logger    *log.Logger
)

func init() {
	logger = log.New(os.Stdout, "", log.LstdFlags)
}

func SetDebugMode(debug bool) {
	debugMode = debug
	if debug {
		logger.SetFlags(log.LstdFlags | log.Lshortfile)
		Info("Debug mode enabled - detailed logging activated")
	} else {
		logger.SetFlags(log.LstdFlags)
	}
}

func IsDebugMode() bool {
	return debugMode
}

// SetOutput redirects all log output, mostly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Writer exposes the underlying destination so other loggers can share it.
func Writer() io.Writer {
	return logger.Writer()
}

func Debug(format string, v ...interface{}) {
	if debugMode {
		msg := fmt.Sprintf("[DEBUG] "+format, v...)
		logger.Output(2, msg)
	}
}

func Info(format string, v ...interface{}) {
	msg := fmt.Sprintf("[INFO] "+format, v...)
	logger.Output(2, msg)
}

func Warn(format string, v ...interface{}) {
	msg := fmt.Sprintf("[WARN] "+format, v...)
	logger.Output(2, msg)
}

func Error(format string, v ...interface{}) {
	msg := fmt.Sprintf("[ERROR] "+format, v...)
	logger.Output(2, msg)
}

func LogOperation(operation string, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		Error("Operation '%s' failed after %v: %v", operation, duration, err)
	} else {
		if debugMode {
			Debug("Operation '%s' completed in %v", operation, duration)
		} else {
			Info("Operation '%s' completed", operation)
		}
	}
}

func LogHTTPRequest(requestID, method, url string, statusCode int, duration time.Duration) {
	if debugMode {
		Debug("HTTP [%s] %s %s -> %d (%v)", requestID, method, url, statusCode, duration)
	} else {
		Info("HTTP %s %s -> %d", method, url, statusCode)
	}
}

// LogExtraction records one run of an extraction backend.
func LogExtraction(backend, videoID string, renditions int, err error) {
	if err != nil {
		Error("Extraction via %s failed for video '%s': %v", backend, videoID, err)
	} else {
		Debug("Extraction via %s for video '%s' returned %d renditions", backend, videoID, renditions)
	}
}
