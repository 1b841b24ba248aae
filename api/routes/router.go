package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendaria/vendaria-backend/api/controllers"
	"github.com/vendaria/vendaria-backend/api/middleware"
	"github.com/vendaria/vendaria-backend/internal/commission"
	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/internal/settlement"
	pkgauth "github.com/vendaria/vendaria-backend/pkg/auth"
	"github.com/vendaria/vendaria-backend/pkg/config"
	"github.com/vendaria/vendaria-backend/pkg/db"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	commissionService commission.Service,
	escrowService escrow.Service,
	settlementService settlement.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/commission-rules", func(r chi.Router) {
			r.Get("/", controllers.CommissionRuleList(commissionService, logg))
			r.Get("/{ruleId}", controllers.CommissionRuleGet(commissionService, logg))

			// only admins change the fee schedule
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(pkgauth.RoleAdmin, logg))
				r.Post("/", controllers.CommissionRuleCreate(commissionService, logg))
				r.Patch("/{ruleId}", controllers.CommissionRuleUpdate(commissionService, logg))
				r.Post("/{ruleId}/deactivate", controllers.CommissionRuleDeactivate(commissionService, logg))
			})
		})

		r.Route("/escrows", func(r chi.Router) {
			r.Get("/", controllers.EscrowList(escrowService, logg))
			r.Get("/{escrowId}", controllers.EscrowDetail(escrowService, logg))
			r.Post("/{escrowId}/dispute", controllers.EscrowDispute(escrowService, logg))
			r.Post("/{escrowId}/resolve-dispute", controllers.EscrowResolveDispute(escrowService, logg))
			r.Post("/{escrowId}/clawbacks", controllers.EscrowClawback(escrowService, logg))
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Post("/generate", controllers.SettlementGenerate(settlementService, logg))
			r.Get("/", controllers.SettlementList(settlementService, logg))
			r.Get("/{settlementId}", controllers.SettlementDetail(settlementService, logg))
			r.Post("/{settlementId}/finalize", controllers.SettlementFinalize(settlementService, logg))
			r.Post("/{settlementId}/adjustments", controllers.SettlementAddAdjustment(settlementService, logg))

			// regeneration rewrites history, lock it down to admins
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(pkgauth.RoleAdmin, logg))
				r.Post("/{settlementId}/regenerate", controllers.SettlementRegenerate(settlementService, logg))
			})
			r.Get("/{settlementId}/export", controllers.SettlementExport(settlementService, logg))
		})
	})

	return r
}
