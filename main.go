package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cppla/msgboard/config"
	"github.com/cppla/msgboard/jobs"
	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/routes"
	"github.com/cppla/msgboard/services"
	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of the given owner password and exit")
	flag.Parse()
	if *hashPassword != "" {
		h, err := utils.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		utils.Sugar.Fatalf("invalid configuration: %v", err)
	}

	if err := utils.InitRedis(cfg); err != nil {
		utils.Sugar.Warnf("redis unavailable, falling back to in-memory stores: %v", err)
	}

	db := config.InitDatabase(&models.LeaveMessage{}, &models.InternalMessage{})

	var store session.Store
	var memStore *session.MemoryStore
	if rc := utils.GetRedis(); rc != nil {
		store = session.NewRedisStore(rc)
	} else {
		memStore = session.NewMemoryStore()
		store = memStore
	}

	broker := jobs.NewBroker(jobs.BrokerConfig{Workers: cfg.JobWorkers, QueueSize: cfg.JobQueueSize}, utils.SendMail, utils.Logger)
	if memStore != nil {
		if err := broker.AddPeriodic("*/10 * * * *", jobs.NewSessionSweepJob(memStore, utils.Logger)); err != nil {
			utils.Sugar.Fatalf("register session sweep: %v", err)
		}
	}
	if cfg.InboxRetentionDays > 0 {
		retention := time.Duration(cfg.InboxRetentionDays) * 24 * time.Hour
		job := jobs.NewInboxRetentionJob(services.NewInboxService(db), retention, utils.Logger)
		if err := broker.AddPeriodic("0 4 * * *", job); err != nil {
			utils.Sugar.Fatalf("register inbox retention: %v", err)
		}
	}
	broker.Start()

	r, err := routes.SetupRouter(cfg, routes.Dependencies{DB: db, Mail: broker, Sessions: store})
	if err != nil {
		utils.Sugar.Fatalf("setup router: %v", err)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		func(ctx context.Context) { broker.Stop(ctx) },
		func(context.Context) { utils.CloseRedis() },
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
