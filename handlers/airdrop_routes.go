package handlers

import (
	"token-airdrop-system/middleware"
	"token-airdrop-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAirdropRoutes wires campaign creation and claiming.
func SetupAirdropRoutes(app *fiber.App, airdrops *services.AirdropService) {
	app.Get("/airdrops", airdrops.ListCampaignsHandler)

	secured := app.Group("/", middleware.UserAuthMiddleware())
	secured.Post("/create-airdrop", airdrops.CreateCampaignHandler)
	secured.Post("/airdrops/:id/claim", airdrops.ClaimHandler)
}
