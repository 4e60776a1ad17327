package main

import (
	"cpn-workers/internal/common/aws"
	"cpn-workers/internal/common/camunda"
	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/database"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/observability"
	"cpn-workers/internal/onboarding"
	"cpn-workers/internal/repository"
	"cpn-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	ccs "cpn-workers/internal/workers/cpn/calculate-cpn-score"
	ea "cpn-workers/internal/workers/cpn/evaluate-achievements"
	li "cpn-workers/internal/workers/cpn/log-interaction"
	ss "cpn-workers/internal/workers/cpn/share-score"
	oc "cpn-workers/internal/workers/onboarding/cleanup"
	om "cpn-workers/internal/workers/onboarding/migrate"
	rs "cpn-workers/internal/workers/onboarding/resume-session"
	sst "cpn-workers/internal/workers/onboarding/save-step"
)

// dependencies are the connected clients shared by every handler.
type dependencies struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient // nil unless configured
	sns   *aws.SNSClient                // nil unless enabled
	ses   *aws.SESClient                // nil unless enabled
	log   logger.Logger
}

func buildWorkers(client zbc.Client, obs *observability.Observability, d dependencies) []*camunda.Worker {
	cfg := d.cfg
	sessions := onboarding.NewRedisSessionFactory(d.redis.Client, cfg.Onboarding, d.log)
	interactions := repository.NewInteractionRepository(d.pg.DB)
	scores := repository.NewScoreRepository(d.pg.DB)
	profiles := repository.NewProfileRepository(d.pg.DB)
	achievementRepo := repository.NewAchievementRepository(d.pg.DB)

	scoreCfg := ccs.ConfigFromApp(cfg)
	scoreDeps := ccs.Dependencies{
		Interactions: interactions,
		Scores:       scores,
		Peers:        scores,
		Sessions:     sessions,
	}
	if d.es != nil {
		index := repository.NewScoreIndex(d.es.Client, cfg.Scoring.ScoreIndex)
		scoreDeps.Index = index
		if cfg.Scoring.PeerSource == config.PeerSourceElasticsearch {
			scoreDeps.Peers = index
		}
	} else if cfg.Scoring.PeerSource == config.PeerSourceElasticsearch {
		d.log.Warn("elasticsearch disabled, peer scores read from postgres", nil)
	}

	achievementDeps := ea.Dependencies{
		Interactions: interactions,
		Scores:       scores,
		Achievements: achievementRepo,
		Scoring:      scoreCfg.Scoring,
	}
	if d.sns != nil {
		achievementDeps.Events = d.sns
	}

	handlers := map[string]camunda.JobHandler{
		sst.TaskType: sst.NewHandler(sst.ConfigFromApp(cfg), sessions, d.log),
		rs.TaskType:  rs.NewHandler(rs.ConfigFromApp(cfg), sessions, d.log),
		oc.TaskType:  oc.NewHandler(oc.ConfigFromApp(cfg), sessions, d.log),
		om.TaskType:  om.NewHandler(om.ConfigFromApp(cfg), sessions, profiles, interactions, d.log),
		li.TaskType:  li.NewHandler(li.ConfigFromApp(cfg), interactions, d.log),
		ccs.TaskType: ccs.NewHandler(scoreCfg, scoreDeps, d.log),
		ea.TaskType:  ea.NewHandler(ea.ConfigFromApp(cfg), achievementDeps, d.log),
	}
	if d.ses != nil {
		handlers[ss.TaskType] = ss.NewHandler(ss.ConfigFromApp(cfg), scores, d.ses, d.log)
	} else {
		d.log.Warn("ses disabled, share-score worker not registered", nil)
	}

	workers := make([]*camunda.Worker, 0, len(handlers))
	for _, taskType := range registry.TaskTypes() {
		handler, ok := handlers[taskType]
		if !ok {
			continue
		}
		workers = append(workers, camunda.NewWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, d.log))
	}
	return workers
}
