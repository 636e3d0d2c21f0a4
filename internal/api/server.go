package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/rouemaroc/spinwheel/docs"
	v1 "github.com/rouemaroc/spinwheel/internal/api/handler/v1"
	"github.com/rouemaroc/spinwheel/internal/api/middleware"
	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
	"github.com/rouemaroc/spinwheel/internal/service"
)

// Deps are the infrastructure pieces built outside of the server.
type Deps struct {
	Hub       *v1.LiveHub
	Publisher service.Publisher
	// Images is nil when no bucket is configured.
	Images service.ImageStore
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	deps     Deps
	sessions *middleware.Sessions
}

type repositories struct {
	admins       *repository.AdminRepository
	campaigns    *repository.CampaignRepository
	cities       *repository.CityRepository
	gifts        *repository.GiftRepository
	participants *repository.ParticipantRepository
}

type handlers struct {
	auth          *v1.AuthHandler
	cities        *v1.CityHandler
	campaigns     *v1.CampaignHandler
	gifts         *v1.GiftHandler
	participation *v1.ParticipationHandler
	live          *v1.LiveHub
}

func NewServer(conf *config.AppConfig, db *gorm.DB, deps Deps) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:   conf,
		Router:   engine,
		deps:     deps,
		sessions: middleware.NewSessions(conf.Session),
	}

	s.MountMiddlewares()

	repos := s.initRepositories(db)
	resolver := s.initResolver(repos)

	s.MountHandlers(handlers{
		auth:          s.initAuthHandler(repos),
		cities:        s.initCityHandler(repos),
		campaigns:     s.initCampaignHandler(repos, resolver),
		gifts:         s.initGiftHandler(repos),
		participation: s.initParticipationHandler(repos, resolver),
		live:          deps.Hub,
	})

	return s
}

func (s *Server) initRepositories(db *gorm.DB) repositories {
	return repositories{
		admins:       repository.NewAdminRepository(dao.NewAdminDAO(db)),
		campaigns:    repository.NewCampaignRepository(dao.NewCampaignDAO(db)),
		cities:       repository.NewCityRepository(dao.NewCityDAO(db)),
		gifts:        repository.NewGiftRepository(dao.NewGiftDAO(db), s.Config.Allocation.ZeroCeilingUnlimited),
		participants: repository.NewParticipantRepository(dao.NewParticipantDAO(db)),
	}
}

func (s *Server) initResolver(repos repositories) *service.AvailabilityService {
	defaults := service.DefaultScopePolicies()
	policies := service.ScopePolicies{
		City:  domain.ParseScopePolicy(s.Config.Allocation.CityScopePolicy, defaults.City),
		Venue: domain.ParseScopePolicy(s.Config.Allocation.VenueScopePolicy, defaults.Venue),
	}

	return service.NewAvailabilityService(repos.gifts, repos.campaigns, repos.participants, policies)
}

func (s *Server) initAuthHandler(repos repositories) *v1.AuthHandler {
	svc := service.NewAuthService(repos.admins)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initCityHandler(repos repositories) *v1.CityHandler {
	svc := service.NewCityService(repos.cities)
	handler := v1.NewCityHandler(svc, s.sessions)

	return handler
}

func (s *Server) initCampaignHandler(repos repositories, resolver *service.AvailabilityService) *v1.CampaignHandler {
	svc := service.NewCampaignService(repos.campaigns, s.Config.API.PublicURL)
	handler := v1.NewCampaignHandler(svc, resolver, repos.cities, s.sessions)

	return handler
}

func (s *Server) initGiftHandler(repos repositories) *v1.GiftHandler {
	svc := service.NewGiftService(repos.gifts, s.deps.Images, s.deps.Publisher)
	handler := v1.NewGiftHandler(svc)

	return handler
}

func (s *Server) initParticipationHandler(repos repositories, resolver *service.AvailabilityService) *v1.ParticipationHandler {
	svc := service.NewParticipationService(repos.participants, repos.campaigns, repos.cities, resolver)
	counter := service.NewInventoryCounter(repos.gifts, s.Config.Allocation.MaxCASAttempts)
	alloc := service.NewAllocationService(repos.participants, repos.gifts, resolver, counter, s.deps.Publisher)
	campaigns := service.NewCampaignService(repos.campaigns, s.Config.API.PublicURL)
	handler := v1.NewParticipationHandler(svc, alloc, campaigns)

	return handler
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(s.sessions.Resolve())
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/login", h.auth.HandleLogin)

		public.POST("/cities/login", h.cities.HandleLogin)
		public.POST("/cities/logout", h.cities.HandleLogout)
		public.GET("/cities/me", h.cities.HandleMe)

		public.GET("/campaigns/:slug", h.campaigns.HandleGetCampaign)
		public.POST("/campaigns/:slug/access", h.campaigns.HandleAccess)
		public.GET("/campaigns/:slug/venues", h.campaigns.HandleListCampaignVenues)
		public.GET("/campaigns/:slug/availability", h.campaigns.HandleAvailability)
		public.POST("/campaigns/:slug/participations", h.participation.HandleRegister)

		public.GET("/spins/:participantID", h.participation.HandleGetSpin)
		public.POST("/spins/:participantID/finalize", h.participation.HandleFinalize)
		public.POST("/spins/:participantID/replay", h.participation.HandleReplay)

		if h.live != nil {
			public.GET("/live/campaigns/:campaignID", h.live.HandleWebSocket)
		}
	}

	admin := s.Router.Group(basePath+"/admin", middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		admin.GET("/me", h.auth.HandleGetMe)

		admin.GET("/campaigns", h.campaigns.HandleListCampaigns)
		admin.POST("/campaigns", h.campaigns.HandleCreateCampaign)
		admin.GET("/campaigns/:campaignID", h.campaigns.HandleGetCampaignByID)
		admin.PUT("/campaigns/:campaignID", h.campaigns.HandleUpdateCampaign)
		admin.DELETE("/campaigns/:campaignID", h.campaigns.HandleDeleteCampaign)
		admin.GET("/campaigns/:campaignID/qrcode", h.campaigns.HandleQRCode)
		admin.GET("/campaigns/:campaignID/city-limits", h.campaigns.HandleListCityLimits)
		admin.PUT("/campaigns/:campaignID/city-limits", h.campaigns.HandleSetCityLimit)
		admin.DELETE("/campaigns/:campaignID/city-limits/:cityID", h.campaigns.HandleDeleteCityLimit)
		admin.POST("/campaigns/:campaignID/reset", h.gifts.HandleResetCampaign)

		admin.GET("/gifts", h.gifts.HandleListGifts)
		admin.POST("/gifts", h.gifts.HandleCreateGift)
		admin.POST("/gifts/reset", h.gifts.HandleResetAll)
		admin.GET("/gifts/:giftID", h.gifts.HandleGetGift)
		admin.PUT("/gifts/:giftID", h.gifts.HandleUpdateGift)
		admin.DELETE("/gifts/:giftID", h.gifts.HandleDeleteGift)
		admin.POST("/gifts/:giftID/image", h.gifts.HandleUploadImage)
		admin.POST("/gifts/:giftID/reset", h.gifts.HandleResetGift)
		admin.GET("/gifts/:giftID/city-limits", h.gifts.HandleListCityLimits)
		admin.PUT("/gifts/:giftID/city-limits", h.gifts.HandleSetCityLimit)
		admin.DELETE("/gifts/:giftID/city-limits/:cityID", h.gifts.HandleDeleteCityLimit)
		admin.GET("/gifts/:giftID/venue-limits", h.gifts.HandleListVenueLimits)
		admin.PUT("/gifts/:giftID/venue-limits", h.gifts.HandleSetVenueLimit)
		admin.DELETE("/gifts/:giftID/venue-limits/:venueID", h.gifts.HandleDeleteVenueLimit)

		admin.GET("/cities", h.cities.HandleListCities)
		admin.POST("/cities", h.cities.HandleCreateCity)
		admin.PUT("/cities/:cityID", h.cities.HandleUpdateCity)
		admin.DELETE("/cities/:cityID", h.cities.HandleDeleteCity)

		admin.GET("/venues", h.cities.HandleListVenues)
		admin.POST("/venues", h.cities.HandleCreateVenue)
		admin.PUT("/venues/:venueID", h.cities.HandleUpdateVenue)
		admin.DELETE("/venues/:venueID", h.cities.HandleDeleteVenue)

		admin.GET("/participants", h.participation.HandleListParticipants)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Spin the wheel API"
	docs.SwaggerInfo.Description = "Prize campaigns: gift inventory, participations and spins."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
