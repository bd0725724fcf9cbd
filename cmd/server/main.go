package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/config"
	"github.com/ryan2kptit/location-based-services-search/internal/database"
	"github.com/ryan2kptit/location-based-services-search/internal/handler"
	"github.com/ryan2kptit/location-based-services-search/internal/queue"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	"github.com/ryan2kptit/location-based-services-search/internal/router"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	signer, err := utils.LoadSigner(
		cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)
	if err != nil {
		log.Fatalf("jwt keys: %v", err)
	}

	// Redis is optional: a nil client degrades every cached path to the
	// database.
	ch := cache.New(config.NewRedisClient())

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resetTokens := repository.NewResetTokenRepo(db)
	services := repository.NewServiceRepo(db)
	types := repository.NewServiceTypeRepo(db)
	locations := repository.NewLocationRepo(db)
	favorites := repository.NewFavoriteRepo(db)

	go func() {
		if err := queue.StartFavoriteConsumer(); err != nil {
			log.Printf("favorite consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(cfg, cacheCfg, signer, users, tokens, ch),
		Users:     handler.NewUserHandler(cfg, users, tokens, resetTokens, ch),
		Services:  handler.NewServiceHandler(cacheCfg, services, types, ch),
		Locations: handler.NewLocationHandler(locations),
		Favorites: handler.NewFavoriteHandler(favorites, services, ch),
		Signer:    signer,
		UserRepo:  users,
		Cache:     ch,
		AuthTTL:   cacheCfg.AuthTTL,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
