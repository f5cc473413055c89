package main

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/autopo-py/s3check/internal/artifact"
	"github.com/andresuchdata/autopo-py/s3check/internal/config"
	"github.com/andresuchdata/autopo-py/s3check/internal/metrics"
	"github.com/andresuchdata/autopo-py/s3check/internal/storage"
	"github.com/andresuchdata/autopo-py/s3check/internal/workflow"
	"github.com/andresuchdata/autopo-py/s3check/pkg/logger"
	"github.com/urfave/cli/v2"
)

var errAborted = errors.New("smoke test aborted")

func newApp() *cli.App {
	return &cli.App{
		Name:  "s3check",
		Usage: "Verify access to an object storage bucket and upload a random test file",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "size-kb",
				Usage: "Size of the generated file in KB (default from SMOKE_FILE_SIZE_KB, 100)",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Object key to upload to (defaults to the generated file name)",
			},
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "Directory the temporary file is written to",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Storage backend: aws or minio",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: runSmokeTest,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Check the bucket, upload a random file, then delete it locally",
				Action: runSmokeTest,
			},
			{
				Name:   "check",
				Usage:  "Only check that the bucket exists and is accessible",
				Action: runBucketCheck,
			},
		},
	}
}

func runSmokeTest(c *cli.Context) error {
	orch, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	if res := orch.Run(c.Context); !res.OK() {
		return fmt.Errorf("%w: %v", errAborted, res.Err)
	}
	return nil
}

func runBucketCheck(c *cli.Context) error {
	orch, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	if res := orch.Check(c.Context); !res.OK() {
		return fmt.Errorf("%w: %v", errAborted, res.Err)
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.Option
	if c.IsSet("size-kb") {
		opts = append(opts, config.Override(config.KeyFileSizeKB, c.Int("size-kb")))
	}
	flags := map[string]string{
		"key":       config.KeyObjectKey,
		"work-dir":  config.KeyWorkDir,
		"provider":  config.KeyProvider,
		"log-level": config.KeyLogLevel,
	}
	for flag, key := range flags {
		if c.IsSet(flag) {
			opts = append(opts, config.Override(key, c.String(flag)))
		}
	}
	return config.Load(opts...)
}

func newOrchestrator(c *cli.Context) (*workflow.Orchestrator, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log := logger.Setup(cfg.Log.Format, cfg.Log.Level)

	store, err := storage.New(c.Context, storage.Config{
		Provider:        cfg.Storage.Provider,
		Bucket:          cfg.Bucket.Name,
		AccessKeyID:     cfg.Credentials.AccessKeyID,
		SecretAccessKey: cfg.Credentials.SecretAccessKey,
		Region:          cfg.Credentials.Region,
		Endpoint:        cfg.Storage.Endpoint,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	observer, err := metrics.NewPrometheusObserver(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return workflow.NewOrchestrator(store, artifact.Files{}, observer, log, workflow.Options{
		SizeKB:    cfg.Smoke.FileSizeKB,
		WorkDir:   cfg.Smoke.WorkDir,
		ObjectKey: cfg.Smoke.ObjectKey,
	}), nil
}
