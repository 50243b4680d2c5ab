package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/chipledger-backend/api/controllers"
	"github.com/angelmondragon/chipledger-backend/api/middleware"
	"github.com/angelmondragon/chipledger-backend/internal/ledger"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
	"github.com/angelmondragon/chipledger-backend/pkg/metrics"
	"github.com/angelmondragon/chipledger-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registryService registry.Service,
	ledgerService ledger.Service,
	ledgerMetrics *metrics.LedgerMetrics,
	promGatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		sessionCreate := controllers.SessionCreate(registryService, cfg, logg)
		if redisClient != nil {
			r.With(middleware.Idempotency(redisClient, logg)).Post("/sessions", sessionCreate)
		} else {
			r.Post("/sessions", sessionCreate)
		}

		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			if redisClient != nil {
				r.Use(middleware.Idempotency(redisClient, logg))
			}

			r.Get("/", controllers.SessionDetail(registryService, logg))
			r.Get("/summary", controllers.SessionSummary(registryService, logg))
			r.Post("/complete", controllers.SessionComplete(registryService, logg))

			r.Post("/players", controllers.PlayerAdd(registryService, logg))
			r.Get("/players", controllers.PlayerList(registryService, logg))

			r.Post("/buy-ins", controllers.BuyInCreate(ledgerService, cfg, logg))
			r.Post("/cash-outs", controllers.CashOutCreate(ledgerService, cfg, logg))
			r.Get("/transactions", controllers.TransactionList(ledgerService, cfg, logg))

			r.Get("/settlement", controllers.SettlementCompute(registryService, ledgerMetrics, logg))
			r.Post("/voice-commands", controllers.VoiceCommand(registryService, ledgerService, cfg, logg))
		})

		r.Route("/transactions/{transactionId}", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			if redisClient != nil {
				r.Use(middleware.Idempotency(redisClient, logg))
			}
			r.Post("/undo", controllers.TransactionUndo(ledgerService, logg))
		})
	})

	return r
}
