package engine

import "github.com/gofiber/fiber/v2"

func RegisterFormRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api", Sanitize())

	api.Get("/getForm", h.GetForm)
	api.Post("/addfield", h.AddField)
	api.Post("/editfield", h.EditField)
	api.Post("/removeField", h.RemoveField)
	api.Post("/submit", h.Submit)
	api.Get("/submission", h.LatestSubmission)
	api.Post("/visibility", h.Visibility)
	api.Get("/openapi.json", h.OpenAPI)
}
