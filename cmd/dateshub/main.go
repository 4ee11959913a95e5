// Command dateshub runs the DatesHub web server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orbsaiuk/DatesHub-sub003/handler"
	"github.com/orbsaiuk/DatesHub-sub003/locales"
	"github.com/orbsaiuk/DatesHub-sub003/modules/account"
	"github.com/orbsaiuk/DatesHub-sub003/modules/api"
	"github.com/orbsaiuk/DatesHub-sub003/modules/site"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/async"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/broadcast"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/clientip"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/config"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/cookie"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/email"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/file"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/httpserver"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/jwt"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/metrics"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/mongo"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/opensearch"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/pg"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/ratelimiter"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/redis"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/requestid"
	"github.com/orbsaiuk/DatesHub-sub003/svc/activity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory/memstore"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory/mongostore"
	"github.com/orbsaiuk/DatesHub-sub003/svc/identity"
	"github.com/orbsaiuk/DatesHub-sub003/svc/messaging"
	"github.com/orbsaiuk/DatesHub-sub003/svc/namecache"
	"github.com/orbsaiuk/DatesHub-sub003/svc/search"
	"github.com/orbsaiuk/DatesHub-sub003/svc/tenancy"
	"github.com/orbsaiuk/DatesHub-sub003/views"
)

type appConfig struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL"`
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"memory"`
	SessionSecret  string        `env:"SESSION_SECRET,required"`
	MediaDir       string        `env:"MEDIA_DIR" envDefault:"./tmp/media"`
	NameCacheTTL   time.Duration `env:"NAME_CACHE_TTL" envDefault:"10m"`
	NameCacheSize  int           `env:"NAME_CACHE_SIZE" envDefault:"1024"`
	ActivityWindow time.Duration `env:"ACTIVITY_WINDOW" envDefault:"168h"`
	NotifyWorkers  int           `env:"NOTIFY_WORKERS" envDefault:"4"`
	NotifyQueue    int           `env:"NOTIFY_QUEUE" envDefault:"256"`

	HTTP       httpserver.Config
	Mongo      mongo.Config
	Redis      redis.Config
	OpenSearch opensearch.Config
	PG         pg.Config
	RateLimit  ratelimiter.Config
	S3         file.S3Config
	Email      email.Config
	Cookie     cookie.Config
	OAuth      account.OAuthConfig
	Account    account.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "dateshub"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			identity.LoggerExtractor(),
			tenancy.LoggerExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the services and serves until ctx is done. Optional backends
// (Redis, OpenSearch, PostgreSQL, S3) are used only when configured.
func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	m := metrics.New("dateshub")
	checks := map[string]httpserver.Check{}

	var store directory.Store
	switch cfg.StoreDriver {
	case "mongo":
		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		ms := mongostore.New(client.Database(cfg.Mongo.Database))
		if err := ms.EnsureIndexes(ctx); err != nil {
			return err
		}
		store = ms
		checks["mongo"] = mongo.Healthcheck(client)
	case "memory":
		log.Warn("using the in-memory store, data is lost on restart")
		store = memstore.New()
	default:
		return errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}

	var nameCache namecache.Cache = namecache.NewMemory(cfg.NameCacheSize, cfg.NameCacheTTL, nil)
	if cfg.Redis.ConnectionURL != "" {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		nameCache = namecache.NewRedis(rdb, cfg.NameCacheTTL, log)
		checks["redis"] = redis.Healthcheck(rdb)
	}
	names := namecache.NewNames(nameCache, store, m, log)

	var (
		searcher search.Searcher = search.Nop{}
		indexer  search.Indexer  = search.Nop{}
	)
	if cfg.OpenSearch.Enabled() {
		client, err := opensearch.New(ctx, cfg.OpenSearch)
		if err != nil {
			return err
		}
		idx := search.NewOpenSearch(client, cfg.OpenSearch.Index)
		if err := idx.EnsureIndex(ctx); err != nil {
			return err
		}
		searcher, indexer = idx, idx
		checks["opensearch"] = opensearch.Healthcheck(client)
	}

	var events audit.Storage = activity.NewMemoryStorage(activity.DefaultMemoryCapacity)
	if cfg.PG.Enabled() {
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := activity.Migrate(ctx, pool, cfg.PG, log); err != nil {
			return err
		}
		events = activity.NewPGStorage(pool)
		checks["postgres"] = pg.Healthcheck(pool)
	}
	auditLog := activity.NewLogger(events)
	activityReader := audit.NewReader(events)

	var (
		files    file.Storage
		mediaDir string
	)
	if cfg.S3.Enabled() {
		s3, err := file.NewS3Storage(ctx, cfg.S3, nil)
		if err != nil {
			return err
		}
		files = s3
	} else {
		local, err := file.NewLocalStorage(cfg.MediaDir, "/media")
		if err != nil {
			return err
		}
		files, mediaDir = local, local.Dir()
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}
	pool := async.NewPool(cfg.NotifyWorkers, cfg.NotifyQueue, async.WithPoolLogger(log))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.Warn("notification pool did not drain", logger.Error(err))
		}
	}()

	live := broadcast.NewMemory[directory.Message](32)
	defer live.Close()

	msgs := messaging.NewService(store,
		messaging.WithBroadcaster(live),
		messaging.WithActivity(auditLog),
		messaging.WithNotifier(messaging.NewNotifier(store, sender, pool, cfg.BaseURL, log)),
		messaging.WithMetrics(m),
		messaging.WithLogger(log),
	)

	lookup := tenancy.NewLookup(store)
	gate := tenancy.NewGate(lookup, store,
		tenancy.WithActivity(activityReader, cfg.ActivityWindow),
		tenancy.WithMetrics(m),
		tenancy.WithGateLogger(log),
	)

	tokens, err := jwt.New([]byte(cfg.SessionSecret), jwt.WithIssuer("dateshub"))
	if err != nil {
		return err
	}
	translator, err := i18n.NewTranslator(locales.FS, i18n.WithLogger(log))
	if err != nil {
		return err
	}

	onError := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{ErrorPage: views.ErrorPage})
	pages := site.New(site.Deps{
		Store:     store,
		Lookup:    lookup,
		Gate:      gate,
		Messaging: msgs,
		Search:    searcher,
		Indexer:   indexer,
		Names:     names,
		Log:       log,
	})
	throttle, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg.RateLimit)
	if err != nil {
		return err
	}

	rest := api.New(api.Deps{
		Store:     store,
		Lookup:    lookup,
		Gate:      gate,
		Messaging: msgs,
		Search:    searcher,
		Indexer:   indexer,
		Audit:     auditLog,
		Activity:  activityReader,
		Files:     files,
		Names:     names,
		Throttle:  throttle,
		BaseURL:   cfg.BaseURL,
		Log:       log,
	})

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(i18n.Middleware(translator, i18n.MiddlewareConfig{Secure: cfg.Cookie.Secure}))
	r.Use(identity.NewResolver(tokens, identity.WithLogger(log)).Middleware)
	r.Use(namecache.Middleware(names))

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks))
	r.Handle("/metrics", m.Handler())
	if mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	if cfg.OAuth.Enabled() {
		account.NewService(cfg.Account, account.NewProvider(cfg.OAuth), store, tokens,
			cookie.NewFromConfig(cfg.Cookie), log, onError).Mount(r)
	} else {
		log.Warn("OAUTH_CLIENT_ID is not set, sign-in is disabled")
	}
	r.Mount("/api", rest.Router())
	pages.Mount(r)
	r.NotFound(pages.NotFound())

	log.Info("starting server",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("store", cfg.StoreDriver),
	)
	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
