package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
)

// Dumper persists an in-memory store
type Dumper interface {
	Dump() error
}

// StorageDumper periodically dumps the in-memory store to its file
type StorageDumper struct {
	dumper   Dumper
	interval time.Duration
}

// NewStorageDumper
func NewStorageDumper(dumper Dumper, interval time.Duration) StorageDumper {
	return StorageDumper{
		dumper:   dumper,
		interval: interval,
	}
}

// Run dumps every interval until ctx is done, then dumps once more
func (d StorageDumper) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dump()
		case <-ctx.Done():
			d.dump()
			return
		}
	}
}

func (d StorageDumper) dump() {
	if err := d.dumper.Dump(); err != nil {
		logger.Log.Info("failed to dump storage", zap.Error(err))
	}
}
