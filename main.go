package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"token-airdrop-system/handlers"
	"token-airdrop-system/ledger"
	"token-airdrop-system/models"
	"token-airdrop-system/services"
	"token-airdrop-system/utils"
	"token-airdrop-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ReferralEntry{},
		&models.Payout{},
		&models.AirdropCampaign{},
		&models.AirdropClaim{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	gateway, err := ledger.NewAlgorandGateway()
	if err != nil {
		log.Fatal("failed to initialize ledger gateway:", err)
	}

	identity, err := services.NewHTTPIdentityClient()
	if err != nil {
		log.Fatal("failed to initialize identity client:", err)
	}

	rewardAssetID, err := strconv.ParseUint(os.Getenv("REWARD_ASSET_ID"), 10, 64)
	if err != nil {
		log.Fatal("REWARD_ASSET_ID environment variable not set or invalid")
	}
	rewardDecimals64, err := strconv.ParseUint(os.Getenv("REWARD_ASSET_DECIMALS"), 10, 32)
	if err != nil {
		log.Fatal("REWARD_ASSET_DECIMALS environment variable not set or invalid")
	}

	store := services.NewGormStore(db)
	teamService := services.NewTeamService(db, store)
	signupService := services.NewSignupService(store, identity)
	verifyService := services.NewVerifyService(db, store, gateway)
	walletService := services.NewWalletService(db)
	checkinService := services.NewCheckInService(db)
	userService := services.NewUserService(db, teamService)
	airdropService := services.NewAirdropService(db, gateway)

	settlementService := services.NewSettlementService(store, teamService, gateway,
		rewardAssetID, uint32(rewardDecimals64))
	settlementService.PayoutPassword = os.Getenv("PAYOUT_PASSWORD")
	if settlementService.PayoutPassword == "" {
		log.Fatal("PAYOUT_PASSWORD environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settlementHours := 720 // monthly by default
	if v := os.Getenv("SETTLEMENT_INTERVAL_HOURS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			settlementHours = parsed
		}
	}
	settlementLimit := 100
	if v := os.Getenv("SETTLEMENT_USER_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			settlementLimit = parsed
		}
	}
	go workers.PollSettlement(ctx, settlementService, time.Duration(settlementHours)*time.Hour, settlementLimit)

	airdropService.StartCampaignScheduler()

	handlers.SetupAccountRoutes(app, signupService, verifyService, walletService,
		checkinService, userService, teamService)
	handlers.SetupPayoutRoutes(app, settlementService, userService)
	handlers.SetupAirdropRoutes(app, airdropService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Printf("✅ Settlement polling running (every %dh, limit %d)", settlementHours, settlementLimit)
	log.Println("✅ Campaign scheduler running")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
