package handlers

import (
	"token-airdrop-system/middleware"
	"token-airdrop-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupPayoutRoutes wires settlement and payout-history endpoints.
func SetupPayoutRoutes(app *fiber.App, settlement *services.SettlementService, users *services.UserService) {
	// Manual settlement trigger; guarded by the payout password, not a JWT,
	// so operators can drive it from cron.
	app.Post("/payouts/monthly", settlement.RunHandler)

	app.Get("/payouts/total/:userId", users.PayoutHistoryHandler)

	secured := app.Group("/", middleware.UserAuthMiddleware())
	secured.Post("/payouts/current", users.CurrentPayoutHandler)
}
