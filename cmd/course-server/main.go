package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/course-player/internal/adapters/jsonfile"
	"github.com/Guilhem-Bonnet/course-player/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/course-player/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/buildinfo"
	"github.com/Guilhem-Bonnet/course-player/internal/config"
	"github.com/Guilhem-Bonnet/course-player/internal/ports"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", os.Getenv("CP_CONFIG"), "Fichier YAML optionnel (ex: course.yaml)")
	addr := flag.String("addr", "", "Adresse d'écoute (défaut "+def.Addr+")")
	root := flag.String("root", "", "Dossier du cours (défaut "+def.Root+")")
	store := flag.String("store", "", "Stockage de la progression: json ou sqlite")
	progressFile := flag.String("progress", "", "Fichier JSON de progression (défaut <root>/progress.json)")
	dbPath := flag.String("db", "", "Chemin SQLite (store=sqlite)")
	cacheDir := flag.String("cache", "", "Dossier de cache des sous-titres convertis")
	debug := flag.Bool("debug", false, "Logs debug")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", "course-server").Logger()
	log.Logger = logger

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(cfg, *configPath); err != nil {
			logger.Fatal().Err(err).Msg("invalid config file")
		}
	}
	// Les flags passent avant le fichier et l'environnement.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "root":
			cfg.Root = *root
		case "store":
			cfg.Store = *store
		case "progress":
			cfg.ProgressFile = *progressFile
		case "db":
			cfg.DBPath = *dbPath
		case "cache":
			cfg.CacheDir = *cacheDir
		}
	})
	cfg, err := cfg.Resolve()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Interface("build", buildinfo.Current()).
		Str("root", cfg.Root).
		Str("store", cfg.Store).
		Msg("starting")

	ctx := context.Background()
	courseFS := os.DirFS(cfg.Root)
	bus := memorybus.New()
	defer bus.Close()

	scanner := app.NewScanner(courseFS, cfg.CourseName)
	courseSvc := app.NewCourseService(logger.With().Str("component", "scanner").Logger(), scanner, bus)
	if _, err := courseSvc.Rescan(ctx); err != nil {
		// Racine illisible : aucun modèle possible.
		logger.Fatal().Err(err).Str("root", cfg.Root).Msg("failed to scan course")
	}

	var repo ports.ProgressRepository
	storeLogger := logger.With().Str("component", "progress-store").Logger()
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			logger.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open db")
		}
		defer func() { _ = db.Close() }()
		repo = sqlite.NewProgressRepository(db.SQL, cfg.Root, storeLogger)
	default:
		jsonRepo := jsonfile.NewProgressRepository(cfg.ProgressFile, storeLogger)
		logger.Info().Str("progress_file", jsonRepo.Path()).Msg("json progress store")
		repo = jsonRepo
	}

	syncSvc := app.NewSyncService(logger.With().Str("component", "sync").Logger(), repo, bus, courseSvc)
	if err := syncSvc.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load progress")
	}

	subtitles := app.NewSubtitleCache(courseFS, cfg.CacheDir, logger.With().Str("component", "subtitles").Logger())

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(logger, courseSvc, syncSvc, bus, courseFS, subtitles)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	// Ferme le bus d'abord : les flux SSE se terminent et Shutdown n'attend pas.
	bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Int64("events_dropped", bus.Dropped()).Msg("bye")
}
