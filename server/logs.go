package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/puyokura/cmppfeed/logging"
)

const logFileName = "server.log"

// setupLogging sends records to stdout and to <dir>/server.log.
func setupLogging(dir string, stdout io.Writer) (*os.File, *logging.SlogLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}

	logFile, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	multiWriter := io.MultiWriter(stdout, logFile)
	return logFile, logging.NewText(multiWriter, slog.LevelInfo), nil
}

// compressLog archives <dir>/server.log as <dir>/logs-<timestamp>.tar.gz and
// returns the archive path.
func compressLog(dir string, now time.Time) (string, error) {
	source := filepath.Join(dir, logFileName)
	target := filepath.Join(dir, fmt.Sprintf("logs-%s.tar.gz", now.Format("20060102-150405")))

	file, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("open log for compression: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat log file: %w", err)
	}

	outFile, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create compressed log file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)

	header, err := tar.FileInfoHeader(info, info.Name())
	if err != nil {
		return "", fmt.Errorf("create tar header: %w", err)
	}
	header.Name = logFileName

	if err := tw.WriteHeader(header); err != nil {
		return "", fmt.Errorf("write tar header: %w", err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return "", fmt.Errorf("compress log: %w", err)
	}
	if err := tw.Close(); err != nil {
		return "", err
	}
	if err := gw.Close(); err != nil {
		return "", err
	}
	return target, nil
}
