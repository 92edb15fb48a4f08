package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/http/middleware"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	api := h.engine.Group("/api")

	api.GET("/health/", HealthCheck(h.context))

	h.setupAuthRoutes(api)
	h.setupDatasetRoutes(api)
}

func (h *APIService) setupAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")

	auth.POST("/login/", Login(h.context))
	auth.POST("/register/", Register(h.context))
	auth.POST("/logout/", middleware.JWTAuthMiddleware(), Logout(h.context))
	auth.GET("/me/", middleware.JWTAuthMiddleware(), GetUserInfo(h.context))
}

func (h *APIService) setupDatasetRoutes(group *gin.RouterGroup) {
	data := group.Group("")
	data.Use(middleware.JWTAuthMiddleware())

	data.POST("/upload/", UploadCSV(h.context))
	data.GET("/history/", GetHistory(h.context))
	data.GET("/summary/:datasetID/", GetSummary(h.context))
	data.GET("/dataset/:datasetID/", GetDataset(h.context))
	data.DELETE("/dataset/:datasetID/", DeleteDataset(h.context))
	data.GET("/report/:datasetID/", DownloadReport(h.context))
}
