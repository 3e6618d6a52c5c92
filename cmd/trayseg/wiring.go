package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	trayseg "github.com/swdee/go-trayseg"
	"github.com/swdee/go-trayseg/config"
	"github.com/swdee/go-trayseg/device"
	"github.com/swdee/go-trayseg/job"
	"github.com/swdee/go-trayseg/remote"
	"github.com/swdee/go-trayseg/storage"
)

// newStore returns the configured blob store
func newStore(s config.StorageSettings) (storage.BlobStore, error) {

	switch s.Backend {
	case "dir":
		return storage.NewDirStore(s.Dir)

	case "sftp":
		return storage.NewSFTPStore(storage.SFTPConfig{
			Host:       s.SFTP.Host,
			Port:       s.SFTP.Port,
			User:       s.SFTP.User,
			Password:   s.SFTP.Password,
			KeyFile:    s.SFTP.KeyFile,
			KnownHosts: s.SFTP.KnownHosts,
			BasePath:   s.SFTP.BasePath,
			Timeout:    s.SFTP.Timeout,
		})

	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// newRunner builds the daily job runner from the settings.  The returned
// func releases the device connection
func (a *app) newRunner(registry *prometheus.Registry) (*job.Runner, func(), error) {

	s := a.settings

	cal, err := s.TrayCalibration()

	if err != nil {
		return nil, nil, err
	}

	pipeline, err := trayseg.NewPipeline(cal,
		trayseg.WithLogger(a.log),
		trayseg.WithWorkers(s.Pipeline.Workers),
	)

	if err != nil {
		return nil, nil, err
	}

	store, err := newStore(s.Storage)

	if err != nil {
		return nil, nil, err
	}

	segmenter, err := remote.NewSegmentClient(remote.Config{
		Endpoint: s.Segment.Endpoint,
		APIKey:   s.Segment.APIKey,
		Timeout:  s.Segment.Timeout,
	}, cal.ClassNames, nil)

	if err != nil {
		return nil, nil, fmt.Errorf("segment: %w", err)
	}

	classifier, err := remote.NewClassifyClient(remote.Config{
		Endpoint: s.Classify.Endpoint,
		APIKey:   s.Classify.APIKey,
		Timeout:  s.Classify.Timeout,
	}, nil)

	if err != nil {
		return nil, nil, fmt.Errorf("classify: %w", err)
	}

	publisher, err := device.NewPublisher(device.Config{
		Broker:   s.MQTT.Broker,
		ClientID: s.MQTT.ClientID,
		Username: s.MQTT.Username,
		Password: s.MQTT.Password,
		Topic:    s.MQTT.Topic,
		QoS:      byte(s.MQTT.QoS),
		Retain:   s.MQTT.Retain,
		Timeout:  s.MQTT.Timeout,
	}, a.log)

	if err != nil {
		return nil, nil, fmt.Errorf("device: %w", err)
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	metrics, err := job.NewMetrics(registry)

	if err != nil {
		publisher.Close()
		return nil, nil, err
	}

	runner := &job.Runner{
		Store:       store,
		Segmenter:   segmenter,
		Classifier:  classifier,
		Signaller:   publisher,
		Pipeline:    pipeline,
		DailyLayout: s.Storage.DailyLayout,
		Archive:     s.Storage.Archive,
		Metrics:     metrics,
		Log:         a.log,
	}

	return runner, publisher.Close, nil
}

// newRegistry returns a registry with the runtime collectors
func newRegistry() *prometheus.Registry {

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}
