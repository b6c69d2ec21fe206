package handlers

import (
	"token-airdrop-system/middleware"
	"token-airdrop-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAccountRoutes wires signup plus the authenticated account surface.
func SetupAccountRoutes(
	app *fiber.App,
	signup *services.SignupService,
	verify *services.VerifyService,
	wallet *services.WalletService,
	checkin *services.CheckInService,
	users *services.UserService,
	team *services.TeamService,
) {
	app.Post("/signup", signup.SignupHandler)
	app.Get("/verification-status/:userId", verify.VerificationStatusHandler)
	app.Get("/total-members", users.TotalMembersHandler)

	secured := app.Group("/", middleware.UserAuthMiddleware())
	secured.Post("/verify", verify.VerifyHandler)
	secured.Post("/setup-wallet", wallet.SetupWalletHandler)
	secured.Post("/daily-checkin", checkin.CheckInHandler)
	secured.Post("/get-user-details", users.GetUserDetailsHandler)
	secured.Post("/my-team", team.MyTeamHandler)
	secured.Post("/verified-team-members", team.VerifiedMembersHandler)
}
