package routes

import (
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/handlers"
	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r chi.Router) {
	// Auth
	r.Post("/auth/register", handlers.Register)
	r.Post("/auth/login", handlers.Login)
	r.Post("/auth/google-login", handlers.GoogleLogin)
	r.Post("/auth/google-register", handlers.GoogleRegister)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Post("/auth/logout", handlers.Logout)
		r.Get("/auth/profile/{userId}", handlers.GetProfile)
		r.Put("/auth/profile/{userId}", handlers.UpdateProfile)
	})

	// Listing photos; counted in Redis so the cap holds across instances
	r.With(
		middleware.RequireAuth(models.RoleSeller),
		middleware.RedisWindowLimit("upload", 20, time.Hour),
	).Post("/upload", handlers.UploadImage)

	// Seller
	r.Route("/seller", func(r chi.Router) {
		r.Use(middleware.RequireAuth(models.RoleSeller))
		r.Post("/items/add", handlers.AddItem)
		// {id} is a seller id on the listing route and an item id elsewhere;
		// chi needs one param name per segment.
		r.Get("/items/{id}", handlers.ListSellerItems)
		r.Get("/items/{id}/status", handlers.ItemStatus)
		r.Put("/items/{id}/cancel", handlers.CancelItem)
		r.Delete("/items/{id}", handlers.DeleteItem)
		r.Put("/location/{sellerId}", handlers.SetLocation(models.RoleSeller, "sellerId"))
		r.Get("/location/{sellerId}", handlers.GetLocation("sellerId"))
	})

	// Timeline is shared by the seller and the holding collector
	r.With(middleware.RequireAuth(models.RoleSeller, models.RoleCollector)).
		Get("/items/{itemId}/history", handlers.ItemHistory)

	// Collector
	r.Route("/collector", func(r chi.Router) {
		r.Use(middleware.RequireAuth(models.RoleCollector))
		r.Put("/location/{collectorId}", handlers.SetLocation(models.RoleCollector, "collectorId"))
		r.Get("/location/{collectorId}", handlers.GetLocation("collectorId"))
		r.Get("/items", handlers.AvailableItems)
		r.Get("/my-accepted", handlers.MyAcceptedItems)
		r.With(middleware.AcceptRateLimit).Post("/items/{itemId}/accept", handlers.AcceptItem)
		r.Post("/items/{itemId}/complete", handlers.CompleteCollection)
		r.Get("/subscription/{collectorId}", handlers.MySubscription)
	})

	// Admin
	r.Post("/admin/login", handlers.AdminLogin)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/logout", handlers.AdminLogout)
		r.Get("/users", handlers.AdminListUsers)
		r.Post("/users/create", handlers.AdminCreateUser)
		r.Get("/user/{userId}", handlers.AdminGetUser)
		r.Put("/user/{userId}", handlers.AdminUpdateUser)
		r.Put("/user/{userId}/role", handlers.AdminUpdateUserRole)
		r.Delete("/user/{userId}", handlers.AdminDeleteUser)
		r.Get("/items", handlers.AdminListItems)
		r.Put("/item/{itemId}", handlers.AdminOverrideWeight)
		r.Delete("/item/{itemId}", handlers.AdminDeleteItem)
		r.Get("/subscriptions", handlers.AdminListSubscriptions)
		r.Post("/subscriptions/{collectorId}", handlers.AdminActivateSubscription)
		r.Delete("/subscriptions/{collectorId}", handlers.AdminCancelSubscription)
	})

	// Item lifecycle events for the signed-in user
	r.Get("/ws/items", handlers.ItemsWebSocket)
}
