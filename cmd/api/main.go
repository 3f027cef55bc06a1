package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zubacrafts/storefront/internal/modules/address"
	"github.com/zubacrafts/storefront/internal/modules/audit"
	"github.com/zubacrafts/storefront/internal/modules/cart"
	"github.com/zubacrafts/storefront/internal/modules/catalog"
	"github.com/zubacrafts/storefront/internal/modules/cms"
	"github.com/zubacrafts/storefront/internal/modules/dashboard"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/modules/newsletter"
	"github.com/zubacrafts/storefront/internal/modules/order"
	"github.com/zubacrafts/storefront/internal/modules/quote"
	"github.com/zubacrafts/storefront/internal/modules/review"
	"github.com/zubacrafts/storefront/internal/notify"
	"github.com/zubacrafts/storefront/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file, using process environment")
	}
	log := logrus.WithField("app", "storefront")

	dbPath := os.Getenv("STORE_PATH")
	if dbPath == "" {
		dbPath = "storefront.db"
	}
	primary, err := store.OpenSQLite(dbPath)
	if err != nil {
		log.WithError(err).Fatal("could not open store")
	}
	defer primary.Close()

	// the in-memory engine shadows the primary; on the first storage
	// failure the gateway degrades onto it for the rest of the process
	db := store.NewFallback(primary, store.NewMemory(), log)

	ctx := context.Background()
	specs := []store.CollectionSpec{
		identity.Spec, address.Spec, review.Spec, newsletter.Spec, audit.Spec,
	}
	specs = append(specs, catalog.Specs...)
	specs = append(specs, cart.Specs...)
	specs = append(specs, order.Specs...)
	specs = append(specs, quote.Specs...)
	specs = append(specs, cms.Specs...)
	for _, spec := range specs {
		if err := db.DefineCollection(ctx, spec); err != nil {
			log.WithError(err).WithField("collection", spec.Name).Fatal("could not define collection")
		}
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	bus := notify.NewBus()

	// ── Identity ────────────────────────────────────────────
	userRepo := identity.NewStoreRepository(db)
	identityService := identity.NewService(userRepo, db, identity.PlaintextVerifier{}, log)
	actor := identityService.CurrentActor

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewStoreRepository(db)
	catalogService := catalog.NewService(catalogRepo, log)
	catalog.NewHandler(catalogService, actor).RegisterRoutes(router)

	// ── Cart ────────────────────────────────────────────────
	cartRepo := cart.NewStoreRepository(db)
	cartService := cart.NewService(cartRepo, catalogService, bus, log)
	cart.NewHandler(cartService, actor).RegisterRoutes(router)

	jwtKey := []byte(os.Getenv("JWT_SECRET"))
	identity.NewHandler(identityService, cartService.MergeGuestIntoUser, jwtKey).RegisterRoutes(router)

	// ── Addresses ───────────────────────────────────────────
	addressRepo := address.NewStoreRepository(db)
	addressService := address.NewService(addressRepo, log)
	address.NewHandler(addressService, actor).RegisterRoutes(router)

	// ── Audit ───────────────────────────────────────────────
	auditRepo := audit.NewStoreRepository(db)
	auditService := audit.NewService(auditRepo, log)
	audit.NewHandler(auditService, actor).RegisterRoutes(router)

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewStoreRepository(db)
	orderService := order.NewService(orderRepo, cartService, catalogService, auditService, bus, log)
	order.NewHandler(orderService, actor).RegisterRoutes(router)

	// ── Quotes ──────────────────────────────────────────────
	quoteRepo := quote.NewStoreRepository(db)
	quoteService := quote.NewService(quoteRepo, orderService, log)
	quote.NewHandler(quoteService, actor).RegisterRoutes(router)

	// ── Reviews, newsletter, content ────────────────────────
	reviewService := review.NewService(review.NewStoreRepository(db))
	review.NewHandler(reviewService, actor).RegisterRoutes(router)

	newsletterService := newsletter.NewService(newsletter.NewStoreRepository(db))
	newsletter.NewHandler(newsletterService, actor).RegisterRoutes(router)

	cmsService := cms.NewService(cms.NewStoreRepository(db), log)
	cms.NewHandler(cmsService, actor).RegisterRoutes(router)

	// ── Dashboard ───────────────────────────────────────────
	dashboardService := dashboard.NewService(orderRepo, catalogRepo, userRepo)
	dashboard.NewHandler(dashboardService, actor).RegisterRoutes(router)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("storefront API listening")
	log.Fatal(http.ListenAndServe(":"+port, router))
}
