package log

import (
	"fmt"
	"io"
	"os"
)

// loggedStream wraps a stream and appends all transferred bytes to a file.
type loggedStream struct {
	rwc     io.ReadWriteCloser
	logFile *os.File
}

func (ls *loggedStream) Read(b []byte) (int, error) {
	n, err := ls.rwc.Read(b)
	if n > 0 {
		if _, werr := ls.logFile.Write(b[:n]); werr != nil {
			return 0, fmt.Errorf("logging read data: %s", werr)
		}
	}
	return n, err
}

func (ls *loggedStream) Write(b []byte) (int, error) {
	n, err := ls.rwc.Write(b)
	if n > 0 {
		if _, werr := ls.logFile.Write(b[:n]); werr != nil {
			return 0, fmt.Errorf("logging written data: %s", werr)
		}
	}
	return n, err
}

func (ls *loggedStream) Close() error {
	ls.logFile.Close()
	return ls.rwc.Close()
}

// NewLoggedStream wraps a stream so that all data read from and written to it
// is also appended to the file at logFilePath.
func NewLoggedStream(rwc io.ReadWriteCloser, logFilePath string) (io.ReadWriteCloser, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &loggedStream{rwc: rwc, logFile: logFile}, nil
}
