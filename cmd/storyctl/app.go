package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"storyfeed/internal/client/cloudinary"
	"storyfeed/internal/client/storyapi"
	"storyfeed/internal/config"
	"storyfeed/internal/domain"
	"storyfeed/internal/notify"
	"storyfeed/internal/publisher"
	"storyfeed/internal/scheduler"
	"storyfeed/internal/service"
	"storyfeed/internal/storage/postgres"
)

var errUsage = errors.New("usage")

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	out       io.Writer
	api       *storyapi.Client
	uploader  *cloudinary.Uploader
	board     *notify.Board
	navigator *logNavigator
	publisher service.Publisher
}

func newApp(cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    out,
		api: storyapi.New(storyapi.Config{
			BaseURL:        cfg.API.BaseURL,
			Resource:       cfg.API.Resource,
			Timeout:        cfg.API.Timeout,
			MaxAttempts:    cfg.API.Retry.MaxAttempts,
			InitialBackoff: cfg.API.Retry.InitialBackoff,
			MaxBackoff:     cfg.API.Retry.MaxBackoff,
		}, logger),
		uploader: cloudinary.New(cloudinary.Config{
			Endpoint:     cfg.Media.Endpoint(),
			UploadPreset: cfg.Media.UploadPreset,
			Folder:       cfg.Media.Folder,
			Timeout:      cfg.Media.Timeout,
		}, logger),
		board:     notify.NewBoard(logger),
		navigator: &logNavigator{logger: logger},
	}

	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect publisher: %w", err)
		}
		a.publisher = rabbitMQ
	}

	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", "error", err)
		}
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		return a.list(ctx, args)
	case "home":
		return a.home(ctx)
	case "show":
		return a.show(ctx, args)
	case "submit":
		return a.submit(ctx, args, false)
	case "edit":
		return a.submit(ctx, args, true)
	case "delete":
		return a.remove(ctx, args)
	case "mirror":
		return a.mirror(ctx, args)
	}
	fmt.Fprintf(a.out, "unknown command %q\n\n%s", command, usageText)
	return errUsage
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	query := fs.String("q", "", "search title and body")
	page := fs.Int("page", 1, "page number")
	fromMirror := fs.Bool("mirror", false, "read the PostgreSQL mirror instead of the API")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *fromMirror {
		return a.listMirror(ctx, *query, *page)
	}

	stories := service.NewStories(a.api, a.board, a.publisher, a.logger, a.cfg.Feed.PageSize)
	if err := stories.Load(ctx); err != nil {
		renderFeed(a.out, stories.View())
		return err
	}

	stories.SetQuery(*query)
	if *page != 1 && !stories.SetPage(*page) {
		a.board.Info(service.OpLoad, fmt.Sprintf("Page %d is out of range", *page))
	}

	renderFeed(a.out, stories.View())
	return nil
}

func (a *app) listMirror(ctx context.Context, query string, page int) error {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stories, err := postgres.NewStoryStore(db).List(ctx, a.cfg.Mirror.SourceID)
	if err != nil {
		return fmt.Errorf("list mirrored stories: %w", err)
	}

	renderFeed(a.out, mirrorView(stories, query, page, a.cfg.Feed.PageSize))
	return nil
}

// mirrorView pages mirrored stories the same way the live feed is paged.
func mirrorView(stories []domain.Story, query string, page, pageSize int) service.StoriesView {
	return service.StoriesView{
		Page:   service.Derive(stories, query, page, pageSize),
		Loaded: true,
	}
}

func (a *app) home(ctx context.Context) error {
	home := service.NewHome(a.api, a.board, a.publisher, a.logger, a.cfg.Feed.HomeSize)
	if err := home.Load(ctx); err != nil {
		fmt.Fprintln(a.out, home.LoadError())
		return err
	}

	renderHome(a.out, home.Displayed(), home.HasMore())
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "story id")
	if err := fs.Parse(args); err != nil || *id == "" {
		return errUsage
	}

	story, err := a.api.Get(ctx, *id)
	if err != nil {
		a.board.Error(service.OpLoad, "Failed to load story")
		return err
	}

	renderStory(a.out, *story)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "story id")
	if err := fs.Parse(args); err != nil || *id == "" {
		return errUsage
	}

	stories := service.NewStories(a.api, a.board, a.publisher, a.logger, a.cfg.Feed.PageSize)
	if err := stories.Load(ctx); err != nil {
		return err
	}
	if err := stories.Remove(ctx, *id); err != nil {
		return err
	}

	renderFeed(a.out, stories.View())
	return nil
}

func (a *app) mirror(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mirror", flag.ContinueOnError)
	once := fs.Bool("once", false, "run a single sync and exit")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	syncService := service.NewSyncService(
		a.cfg.Mirror.SourceID,
		a.api,
		postgres.NewStoryStore(db),
		postgres.NewSyncStateStore(db),
		postgres.NewTransactionManager(db),
		a.publisher,
		a.logger,
	)

	sched := scheduler.NewScheduler(syncService, a.cfg.Mirror.Interval, a.cfg.Mirror.Timeout, a.logger)

	if *once {
		stats := sched.RunOnce(ctx)
		if stats == nil {
			return errors.New("mirror sync failed")
		}
		renderStats(a.out, stats)
		return nil
	}

	a.logger.Info("starting story mirror",
		"source", a.cfg.Mirror.SourceID,
		"interval", a.cfg.Mirror.Interval,
	)
	return sched.Start(ctx)
}

func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", a.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.logger.Info("connected to database")
	return db, nil
}

func (a *app) printNotices(w io.Writer) {
	for _, n := range a.board.Notices() {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
}

// logNavigator stands in for page navigation in a terminal.
type logNavigator struct {
	logger *slog.Logger
}

func (n *logNavigator) Navigate(path string) {
	n.logger.Info("navigate", "path", path)
}
