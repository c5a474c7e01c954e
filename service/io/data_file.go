package io

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cyverse/mockdata-pool/service/dataset"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	WriteBufferSize int = 1024 * 1024 // 1MB
)

// DataFileInfo describes a materialized data file
type DataFileInfo struct {
	Path string
	Size int64
}

// SyncDataFile materializes the dataset to a text file, one line per index.
// Creation is serialized with the given lock, which is shared with cache population.
type SyncDataFile struct {
	path      string
	generator *dataset.Generator
	lock      *sync.Mutex
}

// NewSyncDataFile creates a new SyncDataFile
func NewSyncDataFile(path string, generator *dataset.Generator, lock *sync.Mutex) *SyncDataFile {
	return &SyncDataFile{
		path:      path,
		generator: generator,
		lock:      lock,
	}
}

// GetPath returns the data file path
func (file *SyncDataFile) GetPath() string {
	return file.path
}

// Stat returns info of the data file, nil if it does not exist
func (file *SyncDataFile) Stat() (*DataFileInfo, error) {
	st, err := os.Stat(file.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, xerrors.Errorf("failed to stat data file %q: %w", file.path, err)
	}

	if st.IsDir() {
		return nil, xerrors.Errorf("data file %q is a directory", file.path)
	}

	return &DataFileInfo{
		Path: file.path,
		Size: st.Size(),
	}, nil
}

// Create writes the data file if it does not exist yet.
// Returns true if the file is newly created.
func (file *SyncDataFile) Create() (*DataFileInfo, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "io",
		"struct":   "SyncDataFile",
		"function": "Create",
	})

	file.lock.Lock()
	defer file.lock.Unlock()

	info, err := file.Stat()
	if err != nil {
		return nil, false, err
	}

	if info != nil {
		logger.Debugf("Data file %s already exists (%s)", info.Path, humanize.Bytes(uint64(info.Size)))
		return info, false, nil
	}

	logger.Infof("Writing %d lines to data file %s", file.generator.GetLineCount(), file.path)

	size, err := file.write()
	if err != nil {
		logger.WithError(err).Errorf("failed to write data file %s", file.path)
		return nil, false, err
	}

	logger.Infof("Created data file %s (%s)", file.path, humanize.Bytes(uint64(size)))

	return &DataFileInfo{
		Path: file.path,
		Size: size,
	}, true, nil
}

// write writes all lines to a temp file and renames it to the data file path
func (file *SyncDataFile) write() (int64, error) {
	dir := filepath.Dir(file.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, xerrors.Errorf("failed to make dir %q: %w", dir, err)
	}

	tempPath := file.path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return 0, xerrors.Errorf("failed to create temp data file %q: %w", tempPath, err)
	}

	size, err := file.writeLines(f)
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return 0, err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return 0, xerrors.Errorf("failed to close temp data file %q: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, file.path); err != nil {
		os.Remove(tempPath)
		return 0, xerrors.Errorf("failed to rename %q to %q: %w", tempPath, file.path, err)
	}

	return size, nil
}

func (file *SyncDataFile) writeLines(f *os.File) (int64, error) {
	writer := bufio.NewWriterSize(f, WriteBufferSize)

	lineCount := file.generator.GetLineCount()
	buf := make([]byte, 0, 64)
	size := int64(0)

	for i := int64(0); i < lineCount; i++ {
		// lines in the file are numbered from 1
		buf = dataset.AppendLineText(buf[:0], i+1, file.generator.GetValue(i))
		buf = append(buf, '\n')

		n, err := writer.Write(buf)
		if err != nil {
			return 0, xerrors.Errorf("failed to write line %d: %w", i, err)
		}
		size += int64(n)
	}

	if err := writer.Flush(); err != nil {
		return 0, xerrors.Errorf("failed to flush data file: %w", err)
	}

	return size, nil
}
