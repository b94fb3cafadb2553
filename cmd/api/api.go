package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulso/docs" //this is required to generate swagger docs
	"pulso/internal/aggregate"
	"pulso/internal/auth"
	"pulso/internal/discovery"
	"pulso/internal/geofence"
	"pulso/internal/mailer"
	"pulso/internal/notifications"
	"pulso/internal/outbox"
	"pulso/internal/providers"
	"pulso/internal/ratelimiter"
	"pulso/internal/social"
	"pulso/internal/spatial"
	"pulso/internal/store"

	"github.com/9ssi7/exponent"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter

	discovery *discovery.Service
	engine    *aggregate.Engine
	outbox    *outbox.Outbox
	social    *social.Service
	guard     geofence.Guard
	overpass  *providers.OverpassClient
	push      notifications.PushSender
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	providers   providersConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
}

type providersConfig struct {
	overpassURL string
	geoapifyURL string
	geoapifyKey string
	outboxPath  string
}

// newApplication wires the domain services around the shared infrastructure.
func newApplication(
	cfg config,
	st store.Storage,
	logger *zap.SugaredLogger,
	cld *cloudinary.Cloudinary,
	mail mailer.Client,
	authenticator auth.Authenticator,
	rateLimiter ratelimiter.Limiter,
) *application {
	overpass := providers.NewOverpassClient(cfg.providers.overpassURL, logger)
	geoapify := providers.NewGeoapifyClient(cfg.providers.geoapifyURL, cfg.providers.geoapifyKey, logger)

	cache := spatial.NewCache(time.Now)
	disco := discovery.NewService(st.Venues, geoapify, cache, logger, nil, nil)

	box := outbox.New(cfg.providers.outboxPath)
	engine := aggregate.NewEngine(st.CheckIns, st.Venues, box, logger, nil)

	return &application{
		config:        cfg,
		store:         st,
		logger:        logger,
		cld:           cld,
		mailer:        mail,
		authenticator: authenticator,
		rateLimiter:   rateLimiter,
		discovery:     disco,
		engine:        engine,
		outbox:        box,
		social:        social.NewService(st.Friendships, logger),
		guard:         geofence.NewGuard(),
		overpass:      overpass,
		push:          notifications.NewExpoAdapter(exponent.NewClient()),
	}
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/venues", func(r chi.Router) {
			// Map and search reads work logged-out.
			r.Get("/", app.discoverVenuesHandler)
			r.Get("/search", app.searchVenuesHandler)
			r.Get("/osm", app.nearbyProviderVenuesHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createVenueHandler)
			})

			r.Route("/{venueID}", func(r chi.Router) {
				r.Get("/", app.getVenueHandler)
				r.Get("/checkins", app.listVenueCheckInsHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Post("/photos", app.uploadVenuePhotoHandler)
					r.Post("/checkins", app.createCheckInHandler)
					r.Post("/vote", app.quickVoteHandler)
					r.Post("/verify", app.verifyVenueHandler)
					r.Post("/claim", app.claimVenueHandler)
					r.Post("/reports", app.reportVenueHandler)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Put("/", app.updateUserHandler)
			r.Post("/avatar", app.uploadAvatarHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.savePushTokenHandler)
			r.Delete("/push-tokens", app.removePushTokenHandler)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listFriendsHandler)
			r.Get("/requests", app.listFriendRequestsHandler)
			r.Post("/requests", app.sendFriendRequestHandler)
			r.Put("/requests/{requestID}", app.respondFriendRequestHandler)
			r.Delete("/{friendshipID}", app.unfriendHandler)
			r.Get("/relation/{userID}", app.friendRelationHandler)
		})

		r.With(app.AuthTokenMiddleware).Post("/invites", app.sendInviteHandler)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
