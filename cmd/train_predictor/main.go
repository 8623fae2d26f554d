package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/db"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/jobs/predictor_train"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg := engine.ConfigFromEnv()

	flags := flag.NewFlagSet("train_predictor", flag.ContinueOnError)
	var (
		activate   bool
		dryRun     bool
		maxSamples int
	)
	flags.BoolVar(&activate, "activate", false, "Mark the new snapshot active")
	flags.BoolVar(&dryRun, "dry-run", false, "Train and print metrics without storing a snapshot")
	flags.IntVar(&maxSamples, "max-samples", 0, "Cap on complete records read (0 reads all)")
	flags.StringVar(&cfg.ModelKey, "model-key", cfg.ModelKey, "Snapshot model key")
	flags.IntVar(&cfg.MinRecords, "min-records", cfg.MinRecords, "Minimum complete records required to train")
	flags.Float64Var(&cfg.RidgeLambda, "lambda", cfg.RidgeLambda, "Ridge regularization strength")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: train_predictor [flags]\n\n"+
			"Train the academic predictor from the historical store and store a versioned snapshot.\n\n"+
			"Flags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	dbs, err := db.NewService(log)
	if err != nil {
		log.Error("init database", "error", err)
		return 1
	}
	defer dbs.Close()
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		log.Error("automigrate", "error", err)
		return 1
	}

	p := predictor_train.New(log,
		repos.NewHistoricalRecordRepo(dbs.DB(), log),
		repos.NewModelSnapshotRepo(dbs.DB(), log),
		predictor_train.Config{ModelKey: cfg.ModelKey, Train: cfg.TrainConfig(), MaxSamples: maxSamples},
	)
	res, err := p.Run(context.Background(), predictor_train.Input{Activate: activate, DryRun: dryRun})
	if errors.Is(err, predictor.ErrInsufficientData) {
		log.Warn("not enough complete records to train", "samples", res.Samples, "min_records", cfg.MinRecords)
		return 3
	}
	if err != nil {
		log.Error("training failed", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Error("write result", "error", err)
		return 1
	}
	return 0
}
