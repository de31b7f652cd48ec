// Package main wellness resource loan API.
//
// @title           Bienestar Loan & Queue API
// @version         1.0
// @description     Resource loans, waitlists and wellness hour awards.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer"
	awardctrl "github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/award"
	loanctrl "github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/loan"
	queuectrl "github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/queue"
	resourcectrl "github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/resource"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/validation"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/config"
	awardrepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/award"
	loanrepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/loan"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/repository/notification"
	queuerepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/queue"
	resourcerepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/resource"
	awardsvc "github.com/RicardoJSequeda/bienestar-hub-sub000/service/award"
	loansvc "github.com/RicardoJSequeda/bienestar-hub-sub000/service/loan"
	queuesvc "github.com/RicardoJSequeda/bienestar-hub-sub000/service/queue"
	resourcesvc "github.com/RicardoJSequeda/bienestar-hub-sub000/service/resource"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPwd,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// notifier
	var notifier notification.Notifier = notification.NewRedis(rdb)
	if cfg.WebhookURL != "" {
		notifier = notification.Multi{notifier, notification.NewWebhook(cfg.WebhookURL)}
	}

	// repos
	lr := loanrepo.New(db)
	qr := queuerepo.New(db)
	rr := resourcerepo.New(db)
	ar := awardrepo.New(db)

	// services
	ls := loansvc.New(lr, notifier, cfg.Policy)
	qs := queuesvc.New(qr, notifier, cfg.Policy)
	rs := resourcesvc.New(rr)
	as := awardsvc.New(ar)

	// controllers
	v := validator.New()
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	queueC := &queuectrl.Controller{Svc: qs, Log: log}
	resourceC := &resourcectrl.Controller{Svc: rs, V: v, Log: log}
	awardC := &awardctrl.Controller{Svc: as, Rdb: rdb, V: v, Log: log}

	// sweeps: overdue loans and lapsed claim windows
	overdue := loansvc.NewSweeper(lr)
	lapsed := queuesvc.NewSweeper(qr, notifier, cfg.Policy)
	go func() {
		t := time.NewTicker(cfg.Policy.SweepInterval)
		defer t.Stop()
		for range t.C {
			if n, err := overdue.MarkOverdue(ctx); err != nil {
				log.Error("overdue sweep failed", "err", err)
			} else if n > 0 {
				log.Info("overdue sweep", "flipped", n)
			}
			if n, err := lapsed.ExpireNotified(ctx); err != nil {
				log.Error("queue sweep failed", "err", err)
			} else if n > 0 {
				log.Info("queue sweep", "expired", n)
			}
		}
	}()

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	echoServer.Register(e, echoServer.C{
		Loan:     loanC,
		Queue:    queueC,
		Resource: resourceC,
		Award:    awardC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
