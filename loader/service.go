package loader

import (
	"context"
	"fmt"

	"github.com/KYVENetwork/csv-dlt/loader/collector"
	"github.com/KYVENetwork/csv-dlt/utils"
)

// Start loads every .csv object below the configured prefix. Keys are
// processed by WorkerCount workers. A failing key does not stop the others.
func (loader *Loader) Start(ctx context.Context) (Summary, error) {
	loader.logger.Debug().Msg(fmt.Sprintf("LoaderConfig: %#v", loader.config))

	keys, err := collector.ListCSVKeys(ctx, loader.source, loader.config.Bucket, loader.config.Prefix)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list %s/%s: %w", loader.config.Bucket, loader.config.Prefix, err)
	}
	loader.logger.Info().Int("keys", len(keys)).Str("bucket", loader.config.Bucket).Str("prefix", loader.config.Prefix).Msg("found csv objects")

	loader.warnCollisions(keys)

	return loader.StartKeys(ctx, keys), nil
}

// StartKeys runs every key on the worker pool and collects the results.
func (loader *Loader) StartKeys(ctx context.Context, keys []string) Summary {
	loader.keysChannel = make(chan string, loader.config.ChannelSize)
	loader.resultsChannel = make(chan Result, loader.config.ChannelSize)

	go loader.keysCollector(ctx, keys)

	loader.workerWaitGroup.Add(loader.config.WorkerCount)
	for i := 1; i <= loader.config.WorkerCount; i++ {
		go loader.runWorker(ctx, fmt.Sprintf("CSV - %d", i))
	}

	go func() {
		loader.workerWaitGroup.Wait()
		close(loader.resultsChannel)
	}()

	summary := Summary{
		Succeeded: make([]Status, 0),
		Failed:    make([]Result, 0),
	}
	for result := range loader.resultsChannel {
		if result.Err != nil {
			summary.Failed = append(summary.Failed, result)
		} else {
			summary.Succeeded = append(summary.Succeeded, result.Status)
		}
	}

	loader.logger.Info().
		Int("succeeded", len(summary.Succeeded)).
		Int("failed", len(summary.Failed)).
		Int64("rows", summary.Rows()).
		Msg("sync finished")

	return summary
}

func (loader *Loader) keysCollector(ctx context.Context, keys []string) {
	defer close(loader.keysChannel)

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return
		case loader.keysChannel <- key:
		}
	}
}

func (loader *Loader) runWorker(ctx context.Context, name string) {
	defer loader.workerWaitGroup.Done()

	for {
		key, ok := <-loader.keysChannel
		if !ok {
			loader.logger.Debug().Msg(fmt.Sprintf("(%s) Finished", name))
			return
		}

		if err := utils.AwaitEnoughMemory(ctx, name, loader.config.MaxRamGB); err != nil {
			loader.resultsChannel <- Result{Status: Status{Key: key}, Err: err}
			continue
		}

		status, err := loader.Run(ctx, key)
		loader.resultsChannel <- Result{Status: status, Err: err}
	}
}

// warnCollisions logs keys that are loaded into the same table. The last
// run to finish wins.
func (loader *Loader) warnCollisions(keys []string) {
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		table := TableIdentityFromKey(loader.config.Database, key).String()
		if previous, ok := seen[table]; ok {
			loader.logger.Warn().
				Str("table", table).
				Str("key", key).
				Str("previous_key", previous).
				Msg("keys map to the same table")
			continue
		}
		seen[table] = key
	}
}
