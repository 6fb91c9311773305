package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spigell/hh-interviewer/internal/coach"
	"github.com/spigell/hh-interviewer/internal/document"
	"github.com/spigell/hh-interviewer/internal/generator"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/metrics"
	"github.com/spigell/hh-interviewer/internal/skills"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type application struct {
	coach    *coach.Coach
	registry *prometheus.Registry
}

// newApplication wires the gateway, generators and session store shared by
// every command.
func newApplication(ctx context.Context, config *Config, log *zap.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	gateway, err := newGateway(ctx, config.AI, recorder, log)
	if err != nil {
		return nil, fmt.Errorf("creating ai gateway: %w", err)
	}

	log = logger.WithCommonFields(log, gateway.Provider(), gateway.Model())
	log.Info("ai gateway ready", zap.Duration("timeout", config.AI.Timeout))

	extractor, err := skills.NewExtractor(gateway, log)
	if err != nil {
		return nil, err
	}

	seed := config.Interview.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := interview.NewLockedSource(seed)

	questions := generator.NewQuestions(gateway, log)
	feedback := generator.NewFeedback(gateway, log)

	store := interview.NewStore(func(key string) *interview.Machine {
		return interview.NewMachine(questions, feedback, interview.Config{
			QuestionsPerSkill: config.Interview.QuestionsPerSkill,
			Rand:              rng,
			Observer:          recorder,
			Logger:            logger.WithSession(log, key),
		})
	})

	c := coach.New(coach.Options{
		Store:     store,
		Documents: document.Default,
		Analyzer:  extractor,
		Builder:   generator.NewResumeBuilder(gateway, log),
		Rand:      rng,
		Observer:  recorder,
	}, log)

	return &application{coach: c, registry: registry}, nil
}

// setup creates the logger and loads the config for a command.
func setup() (*zap.Logger, *Config, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	return log, config, nil
}
