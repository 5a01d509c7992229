package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vmikell/urlapi/internal/app/models"
)

// File storage
type FileStorage struct {
	filePath string
}

// New file storage
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{filePath: filePath}
}

// Get records from file
func (fs *FileStorage) Snapshot() ([]models.Record, error) {
	file, err := os.OpenFile(fs.filePath, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("could not load data from file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	result := make([]models.Record, 0)
	for scanner.Scan() {
		var r models.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if r.URLID() == "" {
			continue
		}
		result = append(result, r)
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not restore data: %w", err)
	}

	if err = file.Close(); err != nil {
		return nil, fmt.Errorf("could not restore data: %w", err)
	}

	return result, nil
}

// Save records to file
func (fs *FileStorage) Dump(ms *MapStorage) error {
	file, err := os.OpenFile(fs.filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("could not dump storage: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, r := range ms.snapshot() {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			return fmt.Errorf("could not dump record %q: %w", r.URLID(), err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("could not dump storage: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("could not dump storage: %w", err)
	}

	return nil
}
