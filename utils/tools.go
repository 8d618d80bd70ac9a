package utils

import (
	"context"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// AwaitEnoughMemory blocks while the heap exceeds maxRamGB. A limit of zero
// or less disables the check.
func AwaitEnoughMemory(ctx context.Context, name string, maxRamGB int) error {
	if maxRamGB <= 0 {
		return nil
	}
	limit := uint64(maxRamGB) * 1024 * 1024 * 1024

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logger.Debug().
		Uint64("alloc-mib", bToMb(m.Alloc)).
		Uint64("total-alloc-mib", bToMb(m.TotalAlloc)).
		Uint64("sys-mib", bToMb(m.Sys)).
		Uint32("num-gc", m.NumGC).
		Msg("SYSINFO")

	for m.Alloc > limit {
		logger.Debug().
			Str("worker", name).
			Uint64("alloc-mib", bToMb(m.Alloc)).
			Uint64("limit-mib", bToMb(limit)).
			Msg("memory limit reached, waiting")

		runtime.GC()

		wait := (10 + time.Duration(rand.Intn(10))) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		runtime.ReadMemStats(&m)
	}
	return nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func DltLogger(moduleName string) zerolog.Logger {
	writer := io.MultiWriter(os.Stdout)
	customConsoleWriter := zerolog.ConsoleWriter{Out: writer}
	customConsoleWriter.FormatCaller = func(i interface{}) string {
		return "\x1b[36m[DLT]\x1b[0m"
	}

	logger := zerolog.New(customConsoleWriter).With().Str("module", moduleName).Timestamp().Logger()
	return logger
}
