package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/supabase-community/gotrue-go"
	storage_go "github.com/supabase-community/storage-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tianguis-beats/internal/cart"
	"tianguis-beats/internal/fulfillment"
	"tianguis-beats/internal/handlers"
	"tianguis-beats/internal/llm"
	"tianguis-beats/internal/middleware"
	ws "tianguis-beats/internal/websocket"
)

// This struct will hold our loaded configuration
type Config struct {
	DSN                 string `mapstructure:"DSN"`
	Port                string `mapstructure:"PORT"`
	SupabaseProjectRef  string `mapstructure:"SUPABASE_PROJECT_REF"`
	SupabaseURL         string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey     string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseServiceKey  string `mapstructure:"SUPABASE_SERVICE_KEY"`
	SupabaseJWTSecret   string `mapstructure:"SUPABASE_JWT_SECRET"`
	MidtransServerKey   string `mapstructure:"MIDTRANS_SERVER_KEY"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	LLMAPIURL           string `mapstructure:"LLM_API_URL"`
	LLMAPIKey           string `mapstructure:"LLM_API_KEY"`
	LLMModel            string `mapstructure:"LLM_MODEL"`
	CheckoutSuccessURL  string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string `mapstructure:"CHECKOUT_CANCEL_URL"`
	SignedURLTTLSeconds int    `mapstructure:"SIGNED_URL_TTL_SECONDS"`
	CartTTLHours        int    `mapstructure:"CART_TTL_HOURS"`
}

// Function loads the config.env file from the root folder
func loadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SIGNED_URL_TTL_SECONDS", fulfillment.DefaultExpirySeconds)
	viper.SetDefault("CART_TTL_HOURS", 24*30)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func main() {
	log.Println("Starting Tianguis Beats API server...")

	// Load Configuration
	config, err := loadConfig()
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	// Connect to the Database
	db, err := sqlx.Connect("pgx", config.DSN)
	if err != nil {
		log.Fatal("cannot connect to database:", err)
	}
	defer db.Close()
	log.Println("Successfully connected to Supabase (PostgreSQL)!")

	// Redis holds device carts, the chat rate limit, and the catalog cache
	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	defer rdb.Close()

	// Supabase clients: GoTrue for credentials, storage for signed URLs
	authClient := gotrue.New(config.SupabaseProjectRef, config.SupabaseAnonKey)
	storageClient := storage_go.NewClient(config.SupabaseURL+"/storage/v1", config.SupabaseServiceKey, nil)

	// Realtime comments hub
	hub := ws.NewHub()
	go hub.Run()

	cartStore := cart.NewStore(rdb, time.Duration(config.CartTTLHours)*time.Hour)
	linkGen := fulfillment.NewGenerator(storageClient, config.SignedURLTTLSeconds)
	llmClient := llm.NewClient(config.LLMAPIURL, config.LLMAPIKey, config.LLMModel)

	// Set up our Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Simple test route
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Create an instance of each handler
	authHandler := handlers.NewAuthHandler(db, authClient)
	profileHandler := handlers.NewProfileHandler(db, storageClient)
	beatHandler := handlers.NewBeatHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(cartStore)
	checkoutHandler := handlers.NewCheckoutHandler(db, cartStore, config.MidtransServerKey, config.CheckoutSuccessURL, config.CheckoutCancelURL)
	billingHandler := handlers.NewBillingHandler(db, config.MidtransServerKey, config.CheckoutSuccessURL)
	chatHandler := handlers.NewChatHandler(db, llmClient, rdb)
	commentHandler := handlers.NewCommentHandler(db, hub)
	downloadHandler := handlers.NewDownloadHandler(db, linkGen)
	playlistHandler := handlers.NewPlaylistHandler(db)
	payoutHandler := handlers.NewPayoutHandler(db)

	// All API routes under /api
	api := r.Group("/api")
	{
		// Auth Endpoint
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public catalog
		api.GET("/beats", beatHandler.ListBeats)
		api.GET("/beats/:id", beatHandler.GetBeat)
		api.POST("/beats/:id/play", beatHandler.RegisterPlay)
		api.GET("/beats/:id/comments", commentHandler.ListComments)
		api.GET("/ws/beats/:id", commentHandler.ServeWs)
		api.GET("/sound-kits", catalogHandler.ListSoundKits)
		api.GET("/sound-kits/:id", catalogHandler.GetSoundKit)
		api.GET("/services", catalogHandler.ListServices)
		api.GET("/artists", profileHandler.ListArtists)
		api.GET("/producers/:username", profileHandler.GetProducer)
		api.POST("/chat", chatHandler.Chat)

		// Cart and checkout work for anonymous shoppers too, but pick up
		// the session when one is present
		optional := api.Group("/")
		optional.Use(middleware.OptionalAuthMiddleware(config.SupabaseJWTSecret))
		{
			optional.GET("/cart", cartHandler.GetCart)
			optional.POST("/cart/items", cartHandler.AddItem)
			optional.DELETE("/cart/items/:id", cartHandler.RemoveItem)
			optional.DELETE("/cart", cartHandler.ClearCart)
			optional.POST("/checkout/session", checkoutHandler.CreateSession)
		}

		// Payment gateway webhook
		api.POST("/webhook/payment", checkoutHandler.HandlePaymentNotification)

		// Protected Endpoint
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(config.SupabaseJWTSecret))
		{
			protected.GET("/me", profileHandler.GetMyProfile)
			protected.PATCH("/me", profileHandler.UpdateMyProfile)

			protected.POST("/beats/:id/comments", commentHandler.PostComment)

			protected.GET("/studio/summary", profileHandler.StudioSummary)
			protected.GET("/studio/beats", beatHandler.ListMyBeats)
			protected.PATCH("/studio/beats/:id", beatHandler.UpdateMyBeat)

			protected.GET("/orders", downloadHandler.ListMyOrders)
			protected.GET("/orders/:id/downloads", downloadHandler.GetOrderDownloads)

			protected.POST("/playlists", playlistHandler.CreatePlaylist)
			protected.GET("/playlists", playlistHandler.ListMyPlaylists)
			protected.GET("/playlists/:id", playlistHandler.GetPlaylist)
			protected.POST("/playlists/:id/items", playlistHandler.AddItem)
			protected.DELETE("/playlists/:id/items/:beatId", playlistHandler.RemoveItem)
			protected.DELETE("/playlists/:id", playlistHandler.DeletePlaylist)

			protected.GET("/balance", payoutHandler.GetBalance)
			protected.POST("/payouts", payoutHandler.RequestPayout)
			protected.GET("/payouts", payoutHandler.ListMyPayouts)

			protected.POST("/billing/portal", billingHandler.CreatePortalSession)
			protected.GET("/billing/subscription", billingHandler.GetSubscription)

			// Back-office, gated on the profile's admin flag
			admin := protected.Group("/admin")
			admin.Use(profileHandler.RequireAdmin)
			{
				admin.GET("/payouts", payoutHandler.ListAllPayouts)
				admin.PATCH("/payouts/:id", payoutHandler.ResolvePayout)
			}
		}
	}

	// Start the server
	log.Println("Server starting on http://localhost:" + config.Port)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatal("could not start server:", err)
	}
}
