package router

import (
	"context"
	"errors"
	"net/http"

	"club25-backend/internal/application/admission"
	analyticssvc "club25-backend/internal/application/analytics"
	checkinsvc "club25-backend/internal/application/checkin"
	dropsvc "club25-backend/internal/application/drops"
	guestsvc "club25-backend/internal/application/guests"
	healthsvc "club25-backend/internal/application/health"
	invitesvc "club25-backend/internal/application/invites"
	"club25-backend/internal/application/notifications"
	"club25-backend/internal/application/rsvps"
	settingssvc "club25-backend/internal/application/settings"
	uploadsvc "club25-backend/internal/application/uploads"
	authsvc "club25-backend/internal/auth"
	"club25-backend/internal/config"
	"club25-backend/internal/constants"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/infrastructure/locks"
	"club25-backend/internal/infrastructure/realtime"
	admissionhandler "club25-backend/internal/interfaces/handlers/admission"
	analyticshandler "club25-backend/internal/interfaces/handlers/analytics"
	authhandler "club25-backend/internal/interfaces/handlers/auth"
	checkinhandler "club25-backend/internal/interfaces/handlers/checkin"
	dropshandler "club25-backend/internal/interfaces/handlers/drops"
	guestshandler "club25-backend/internal/interfaces/handlers/guests"
	healthhandler "club25-backend/internal/interfaces/handlers/health"
	inviteshandler "club25-backend/internal/interfaces/handlers/invites"
	livehandler "club25-backend/internal/interfaces/handlers/live"
	settingshandler "club25-backend/internal/interfaces/handlers/settings"
	uploadhandler "club25-backend/internal/interfaces/handlers/uploads"
	"club25-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrRedisRequired is returned in production when REDIS_URL is missing.
var ErrRedisRequired = errors.New("REDIS_URL is required in production")

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Infra is the shared coordination layer: one Redis client backs sessions, health
// counters, admission locks, the notification queue and the realtime feed.
type Infra struct {
	Rdb    *redis.Client
	Locker locks.Locker
	Queue  notifications.Queue
	Broker realtime.Broker
}

// NewInfra connects to REDIS_URL. Outside production a missing URL falls back to an
// embedded Redis plus in-process locks, queue and broker (single instance only).
func NewInfra(cfg *config.Config) (*Infra, error) {
	if cfg.RedisURL != "" {
		rdb, err := middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Infra{
			Rdb:    rdb,
			Locker: &locks.RedisLocker{Rdb: rdb},
			Queue:  &notifications.RedisQueue{Rdb: rdb},
			Broker: &realtime.RedisBroker{Rdb: rdb},
		}, nil
	}
	if cfg.IsProduction() {
		return nil, ErrRedisRequired
	}
	mr, err := miniredis.Run()
	if err != nil {
		return nil, err
	}
	log.Warn().Str("addr", mr.Addr()).Msg("REDIS_URL not set: using embedded redis and in-process coordination")
	return &Infra{
		Rdb:    redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Locker: &locks.LocalLocker{},
		Queue:  &notifications.MemoryQueue{},
		Broker: realtime.NewLocalBroker(),
	}, nil
}

// NewSender picks Resend when an API key is set, then SMTP, else nil (jobs are logged and dropped).
func NewSender(cfg *config.Config) notifications.Sender {
	switch {
	case cfg.ResendAPIKey != "":
		return &notifications.ResendClient{APIKey: cfg.ResendAPIKey, From: cfg.EmailFrom}
	case cfg.SMTPHost != "":
		return notifications.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	default:
		return nil
	}
}

// NewIdentityProvider uses the hosted auth admin API when configured.
func NewIdentityProvider(cfg *config.Config) guestsvc.IdentityProvider {
	if cfg.SupabaseURL != "" && cfg.SupabaseSecretKey != "" {
		return &guestsvc.SupabaseAdmin{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	}
	return guestsvc.LocalIdentity{}
}

// Services are the application services shared by the HTTP app and the CLI.
type Services struct {
	Settings   *settingssvc.Service
	Invites    *invitesvc.Service
	Drops      *dropsvc.Service
	Guests     *guestsvc.Resolver
	Ledger     *rsvps.Ledger
	Checkins   *checkinsvc.Verifier
	Dispatcher *notifications.Dispatcher
	Scheduler  *notifications.Scheduler
	Admission  *admission.Service
	Analytics  *analyticssvc.Service
	Uploads    *uploadsvc.Service
	MagicLinks *guestsvc.MagicLinks
	Tokens     *authsvc.GuestTokens
}

// NewServices wires every service over db and the shared infra.
func NewServices(cfg *config.Config, db *gorm.DB, infra *Infra) *Services {
	s := &Services{
		Settings:   &settingssvc.Service{DB: db, Rdb: infra.Rdb},
		Invites:    &invitesvc.Service{DB: db},
		Drops:      &dropsvc.Service{DB: db},
		Guests:     &guestsvc.Resolver{DB: db, Provider: NewIdentityProvider(cfg)},
		Ledger:     &rsvps.Ledger{DB: db},
		Checkins:   &checkinsvc.Verifier{DB: db},
		Dispatcher: &notifications.Dispatcher{Queue: infra.Queue},
		Analytics:  &analyticssvc.Service{DB: db},
		Tokens:     &authsvc.GuestTokens{Secret: cfg.GuestTokenSecret},
	}
	s.Scheduler = &notifications.Scheduler{DB: db, Dispatcher: s.Dispatcher}
	s.Admission = &admission.Service{
		DB:         db,
		Invites:    s.Invites,
		Drops:      s.Drops,
		Guests:     s.Guests,
		Ledger:     s.Ledger,
		Locker:     infra.Locker,
		Checkins:   s.Checkins,
		Broker:     infra.Broker,
		Dispatcher: s.Dispatcher,
		Settings:   s.Settings,
	}
	s.Uploads = &uploadsvc.Service{
		DB:          db,
		Client:      &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey},
		SupabaseURL: cfg.SupabaseURL,
	}
	s.MagicLinks = &guestsvc.MagicLinks{Resolver: s.Guests, Tokens: s.Tokens, Dispatcher: s.Dispatcher, AppURL: cfg.AppURL}
	return s
}

// StartWorkers runs cfg.NotifyWorkers notification workers until ctx ends.
func StartWorkers(ctx context.Context, cfg *config.Config, queue notifications.Queue) {
	sender := NewSender(cfg)
	if sender == nil {
		log.Warn().Msg("no e-mail transport configured: notifications will be dropped")
	}
	for i := 0; i < cfg.NotifyWorkers; i++ {
		w := &notifications.Worker{Queue: queue, Sender: sender, AppURL: cfg.AppURL}
		go w.Run(ctx)
	}
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	infra, err := NewInfra(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := infra.Rdb

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{cfg.AppURL},
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
		Probes: []healthsvc.Probe{
			{Name: "frontend", URL: cfg.AppURL},
			{Name: "supabase", URL: supabaseHealthURL(cfg.SupabaseURL)},
		},
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no database configured: only health routes are mounted")
		return app, nil, rdb, nil
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	hh.DB = &gormDBPinger{db: db}

	svc := NewServices(cfg, db, infra)
	StartWorkers(context.Background(), cfg, infra.Queue)
	Mount(app, cfg, db, rdb, infra.Broker, svc)

	return app, db, rdb, nil
}

// Mount registers the public, guest and back-office routes.
func Mount(app *fiber.App, cfg *config.Config, db *gorm.DB, rdb *redis.Client, broker realtime.Broker, svc *Services) {
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	// Public
	adh := &admissionhandler.Handlers{Admission: svc.Admission, Invites: svc.Invites, Session: sessionCfg}
	dh := &dropshandler.Handlers{Drops: svc.Drops, Scheduler: svc.Scheduler}
	gh := &guestshandler.Handlers{Ledger: svc.Ledger, Admission: svc.Admission, Analytics: svc.Analytics, MagicLinks: svc.MagicLinks}

	api := app.Group("/api")
	api.Post("/validate-invite", adh.ValidateInvite)
	api.Post("/rsvp", adh.RSVP)
	api.Get("/confirmations/:code", adh.Confirmation)
	api.Get("/drops/current", dh.Current)
	api.Get("/drops/archive", dh.Archive)
	api.Get("/drops/:slug", dh.BySlug)
	api.Get("/drops/:slug/gallery", dh.Gallery)
	api.Post("/auth/magic-link", gh.MagicLink)
	api.Get("/my/rsvps", middleware.RequireGuest(svc.Tokens), gh.MyRSVPs)

	// Back office auth
	ah := &authhandler.Handlers{AdminFinder: &authsvc.GormAdminFinder{DB: db}, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/admin/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	admin := app.Group("/api/admin", middleware.RequireAuth())

	ch := &checkinhandler.Handlers{Verifier: svc.Checkins, Broker: broker}
	admin.Post("/checkin/scan", middleware.AuthorizePermission(constants.CheckInGuests), ch.Scan)
	admin.Post("/checkin/code", middleware.AuthorizePermission(constants.CheckInGuests), ch.Code)

	lh := &livehandler.Handlers{Broker: broker}
	admin.Get("/live", middleware.AuthorizePermission(constants.ViewLiveFeed), lh.Upgrade, websocket.New(lh.Stream))

	uph := &uploadhandler.Handlers{Service: svc.Uploads}
	manageDrops := middleware.AuthorizePermission(constants.ManageDrops)
	manageMedia := middleware.AuthorizePermission(constants.ManageMedia)
	admin.Get("/drops", manageDrops, dh.List)
	admin.Post("/drops", manageDrops, dh.Create)
	admin.Get("/drops/:id", manageDrops, dh.Get)
	admin.Put("/drops/:id", manageDrops, dh.Update)
	admin.Patch("/drops/:id/status", manageDrops, dh.SetStatus)
	admin.Delete("/drops/:id", manageDrops, dh.Delete)
	admin.Post("/drops/:id/recap", manageDrops, dh.SendRecap)
	admin.Get("/drops/:id/checkins", middleware.AuthorizePermission(constants.CheckInGuests), ch.Arrivals)
	admin.Post("/drops/:id/media/upload-url", manageMedia, uph.UploadURL)
	admin.Post("/drops/:id/media", manageMedia, uph.Register)
	admin.Get("/drops/:id/media", manageMedia, uph.List)
	admin.Patch("/media/:mediaId", manageMedia, uph.Approve)
	admin.Delete("/media/:mediaId", manageMedia, uph.Delete)

	ih := &inviteshandler.Handlers{Invites: svc.Invites, Settings: svc.Settings}
	manageInvites := middleware.AuthorizePermission(constants.ManageInvites)
	admin.Get("/invites", manageInvites, ih.List)
	admin.Post("/invites", manageInvites, ih.Create)
	admin.Patch("/invites/:id", manageInvites, ih.Toggle)
	admin.Delete("/invites/:id", manageInvites, ih.Delete)

	admin.Get("/guests", middleware.AuthorizePermission(constants.ViewGuests), gh.List)
	admin.Get("/guests/export", middleware.AuthorizePermission(constants.ManageGuests), gh.Export)
	admin.Patch("/guests/:id/status", middleware.AuthorizePermission(constants.ManageGuests), gh.UpdateStatus)

	anh := &analyticshandler.Handlers{Analytics: svc.Analytics}
	viewAnalytics := middleware.AuthorizePermission(constants.ViewAnalytics)
	admin.Get("/stats", viewAnalytics, anh.Dashboard)
	admin.Get("/analytics", viewAnalytics, anh.Report)
	admin.Get("/analytics/export", viewAnalytics, anh.ExportDrops)

	sh := &settingshandler.Handlers{Settings: svc.Settings}
	admin.Get("/settings", middleware.AuthorizePermission(constants.ManageSettings), sh.Get)
	admin.Put("/settings", middleware.AuthorizePermission(constants.ManageSettings), sh.Update)
}

func supabaseHealthURL(base string) string {
	if base == "" {
		return ""
	}
	return base + "/auth/v1/health"
}

// Handler exposes app as a net/http handler for serverless hosts.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
