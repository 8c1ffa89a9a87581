package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bankinworks/crmrag/internal/api/handlers"
	"github.com/bankinworks/crmrag/internal/api/middleware"
	"github.com/bankinworks/crmrag/internal/cache"
	"github.com/bankinworks/crmrag/internal/config"
)

type Router struct {
	mux       *chi.Mux
	cfg       *config.Config
	db        *pgxpool.Pool
	redis     *redis.Client
	querySvc  handlers.QueryService
	ingestSvc handlers.Ingestor
	enqueuer  handlers.Enqueuer
	respCache *cache.Cache
}

// NewRouter wires the service layer into the HTTP surface. db, redis,
// enqueuer, and respCache may be nil when the backing service is not
// configured.
func NewRouter(cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client, querySvc handlers.QueryService, ingestSvc handlers.Ingestor, enqueuer handlers.Enqueuer, respCache *cache.Cache) *Router {
	return &Router{
		mux:       chi.NewRouter(),
		cfg:       cfg,
		db:        db,
		redis:     rdb,
		querySvc:  querySvc,
		ingestSvc: ingestSvc,
		enqueuer:  enqueuer,
		respCache: respCache,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(50, 100)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis, rt.cfg.Server.Environment)
	r.Get("/health", health.Health)
	r.Get("/readyz", health.Readyz)

	queryH := handlers.NewQueryHandler(rt.querySvc, rt.respCache)
	ingestH := handlers.NewIngestHandler(rt.ingestSvc, rt.enqueuer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", queryH.Query)
		r.Post("/query/conversation", queryH.QueryConversation)
		r.Post("/ingest", ingestH.Ingest)
		r.Post("/ingest/async", ingestH.IngestAsync)
		r.Get("/status", queryH.Status)
	})

	return r
}
