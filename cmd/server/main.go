package main

import (
	"log"

	"lightsms-gateway/internal/api"
	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/config"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/intel"
	"lightsms-gateway/internal/scheduler"
	"lightsms-gateway/internal/sms"
	"lightsms-gateway/internal/webhook"
	"lightsms-gateway/internal/wizard"
	"lightsms-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	database.InitDB(cfg)
	database.SyncConfig(cfg)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	hub := ws.NewHub()
	go hub.Run()

	smsClient := sms.NewClient(cfg)
	smsClient.Events = hub

	authService := auth.NewService(cfg)
	intelEngine := intel.NewStandInEngine()
	wizardManager := wizard.NewManager()

	dispatcher := scheduler.NewDispatcher(database.GormDB, smsClient, intelEngine.Predictor)
	go dispatcher.Start()

	authHandler := api.NewAuthHandler(authService)
	smsHandler := api.NewSmsHandler(smsClient)
	importHandler := api.NewImportHandler(wizardManager, smsClient)
	campaignHandler := api.NewCampaignHandler()
	pricingHandler := api.NewPricingHandler()
	intelHandler := api.NewIntelHandler(intelEngine)
	dashboardHandler := api.NewDashboardHandler()
	webhookHandler := webhook.NewHandler(database.GormDB, intelEngine.Analyzer, hub)

	// Public Routes
	r.POST("/token", authHandler.Login)
	r.POST("/users", authHandler.Signup)
	r.GET("/pricing", pricingHandler.Plans)
	r.POST("/webhook/replies", webhookHandler.HandleReply)
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	// Authenticated API Routes
	apiGroup := r.Group("/", authService.RequireAuth())
	{
		apiGroup.GET("/users/me", authHandler.Me)
		apiGroup.GET("/dashboard/stats", dashboardHandler.Stats)

		// SMS Routes
		apiGroup.POST("/sms/send", smsHandler.Send)
		apiGroup.POST("/sms/bulk", smsHandler.SendBulk)
		apiGroup.GET("/sms/status/:id", smsHandler.Status)
		apiGroup.GET("/sms/quota", smsHandler.Quota)
		apiGroup.GET("/sms/history", smsHandler.History)

		// Import Wizard Routes
		apiGroup.POST("/imports", importHandler.CreateSession)
		apiGroup.GET("/imports/:id", importHandler.GetState)
		apiGroup.POST("/imports/:id/file", importHandler.UploadFile)
		apiGroup.PUT("/imports/:id/mapping", importHandler.SetMapping)
		apiGroup.PUT("/imports/:id/compose", importHandler.Compose)
		apiGroup.POST("/imports/:id/next", importHandler.NextStep)
		apiGroup.POST("/imports/:id/back", importHandler.BackStep)
		apiGroup.POST("/imports/:id/send", importHandler.SendCampaign)
		apiGroup.POST("/imports/:id/reset", importHandler.ResetSession)
		apiGroup.DELETE("/imports/:id", importHandler.DeleteSession)

		// Campaign Routes
		apiGroup.POST("/campaigns", campaignHandler.Create)
		apiGroup.GET("/campaigns", campaignHandler.List)
		apiGroup.GET("/campaigns/:id", campaignHandler.Get)
		apiGroup.GET("/groups", campaignHandler.Groups)
		apiGroup.GET("/groups/:id/contacts", campaignHandler.GroupContacts)

		// Reply + Intel Routes
		apiGroup.GET("/replies", webhookHandler.ListReplies)
		apiGroup.POST("/intel/suggestions", intelHandler.Suggest)
		apiGroup.POST("/intel/send-times", intelHandler.SendTimes)
		apiGroup.POST("/intel/sentiment", intelHandler.Sentiment)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
