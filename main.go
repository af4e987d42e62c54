package main

import (
	"go.uber.org/zap"

	"github.com/coachmybody/server/config"
	"github.com/coachmybody/server/events"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/routes"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(cfg)
	store := repositories.NewStore(db)

	rc := utils.NewRedis(cfg)
	if rc == nil {
		utils.Sugar.Warn("redis unavailable; routine cache disabled and OAuth state kept in memory")
	} else {
		defer rc.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		utils.Logger.Info("publishing domain events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaRecordTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			utils.Sugar.Warnf("closing event publisher: %v", err)
		}
	}()

	issuer := utils.NewTokenIssuer([]byte(cfg.JWTSecret))
	svc := routes.Services{
		Users: services.NewUserService(store, issuer,
			services.WithTokenTTL(cfg.AccessTokenTTL()),
			services.WithLogger(utils.Logger)),
		Routines: services.NewRoutineService(store,
			services.WithCache(utils.NewCache(rc), cfg.CacheTTL()),
			services.WithLogger(utils.Logger)),
		Records: services.NewRecordService(store,
			services.WithPublisher(publisher, cfg.KafkaRecordTopic),
			services.WithLogger(utils.Logger)),
		Exercises: services.NewExerciseService(store),
		States:    utils.NewStateStore(rc),
	}

	// drain background event publishes before the publisher closes
	defer svc.Records.Wait()

	r := routes.SetupRouter(cfg, svc)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}
