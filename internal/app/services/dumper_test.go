package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vmikell/urlapi/internal/app/services"
)

type countingDumper struct {
	calls atomic.Int32
	err   error
}

func (d *countingDumper) Dump() error {
	d.calls.Add(1)
	return d.err
}

func TestStorageDumperDumpsOnShutdown(t *testing.T) {
	dumper := &countingDumper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		services.NewStorageDumper(dumper, time.Hour).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dumper did not stop")
	}
	assert.Equal(t, int32(1), dumper.calls.Load())
}

func TestStorageDumperDumpsPeriodically(t *testing.T) {
	dumper := &countingDumper{err: errors.New("disk full")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go services.NewStorageDumper(dumper, 5*time.Millisecond).Run(ctx)

	assert.Eventually(t, func() bool {
		return dumper.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}
