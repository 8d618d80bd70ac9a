package loader

import (
	"sync"

	"github.com/KYVENetwork/csv-dlt/destinations"
	"github.com/KYVENetwork/csv-dlt/loader/collector"
	"github.com/KYVENetwork/csv-dlt/schema"
	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/rs/zerolog"
)

type Loader struct {
	keysChannel    chan string
	resultsChannel chan Result

	workerWaitGroup sync.WaitGroup

	config      Config
	source      collector.Source
	destination destinations.Destination
	logger      zerolog.Logger
}

type Config struct {
	ConnectionName string

	Bucket   string
	Prefix   string
	Database string

	ChannelSize int
	WorkerCount int
	MaxRamGB    int

	Detector schema.DatetimeDetector

	// Events may be nil, in which case no usage events are sent.
	Events *utils.EventTracker
}

func NewLoader(loaderConfig Config, source collector.Source, destination destinations.Destination, logger zerolog.Logger) *Loader {
	if loaderConfig.WorkerCount <= 0 {
		loaderConfig.WorkerCount = 1
	}
	if loaderConfig.ChannelSize <= 0 {
		loaderConfig.ChannelSize = loaderConfig.WorkerCount
	}
	if loaderConfig.Detector.Patterns == nil {
		loaderConfig.Detector = schema.DefaultDatetimeDetector()
	}

	return &Loader{
		config:      loaderConfig,
		source:      source,
		destination: destination,
		logger:      logger,
	}
}

func (loader *Loader) Close() error {
	sourceErr := loader.source.Close()
	if err := loader.destination.Close(); err != nil {
		return err
	}
	return sourceErr
}
