package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/aster/config"
	"github.com/Ramsey-B/aster/internal/repositories/contactentity"
	"github.com/Ramsey-B/aster/internal/repositories/identifier"
	"github.com/Ramsey-B/aster/internal/repositories/mergerecord"
	pkgcontext "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/merging"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/processor"
	"github.com/Ramsey-B/aster/pkg/resolution"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// app carries the wired service graph shared by every command.
type app struct {
	cfg         *config.Config
	logger      ectologger.Logger
	db          database.DB
	entities    *contactentity.Repository
	identifiers *identifier.Repository
	records     *mergerecord.Repository
	matcher     *matching.Engine
	detector    *matching.Detector
	merger      *merging.Engine
	resolver    *resolution.Service

	shutdownTracing func(context.Context) error
}

// newApp loads configuration and wires the full dependency graph. Commands
// that touch the database go through here; close with app.Close.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	normalizers.SetDefaultRegion(cfg.PhoneRegion)

	shutdownTracing, err := tracing.Init(cfg.AppName, cfg.TracingExport)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, logger, database.ConnectionConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	entities := contactentity.NewRepository(db, logger)
	identifiers := identifier.NewRepository(db, logger)
	records := mergerecord.NewRepository(db, logger)

	matcher := matching.NewEngine(matching.Weights{
		Email:            cfg.MatchEmailWeight,
		EmailDomainScore: cfg.MatchEmailDomainScore,
		Phone:            cfg.MatchPhoneWeight,
		Name:             cfg.MatchNameWeight,
		Company:          cfg.MatchCompanyWeight,
		NameReasonCutoff: cfg.MatchNameReasonCutoff,
	})
	detector := matching.NewDetector(logger, matcher)
	merger := merging.NewEngine(logger, db, entities, identifiers, records, matcher)
	resolver := resolution.NewService(logger, db, entities, identifiers, matcher, cfg.ResolveAttachThreshold)

	return &app{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		entities:        entities,
		identifiers:     identifiers,
		records:         records,
		matcher:         matcher,
		detector:        detector,
		merger:          merger,
		resolver:        resolver,
		shutdownTracing: shutdownTracing,
	}, nil
}

// autoMerge builds the auto-merge processor with effective settings; command
// flags may override the configured threshold and cap.
func (a *app) autoMerge(threshold float64, maxMerges int) *processor.AutoMerge {
	return processor.NewAutoMerge(a.logger, a.db, a.entities, a.detector, a.merger, threshold, maxMerges)
}

func (a *app) Close(ctx context.Context) {
	if err := a.db.Close(); err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("Failed to close database")
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.WithContext(ctx).WithError(err).Warn("Failed to shut down tracing")
		}
	}
}

// runContext stamps the context with a request id and the acting principal
// so every log line and merge record of one invocation correlates.
func runContext(ctx context.Context, actor string) context.Context {
	ctx = pkgcontext.SetRequestID(ctx, uuid.New().String())
	ctx = pkgcontext.SetActor(ctx, actor)
	return ctx
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

// thresholdArg parses an optional positional score threshold, falling back
// to the configured default when absent.
func thresholdArg(args []string, fallback float64) (float64, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	threshold, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", args[0], err)
	}
	if threshold < 0 || threshold > 1 {
		return 0, fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}
	return threshold, nil
}

func printJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
