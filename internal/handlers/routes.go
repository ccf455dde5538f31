package handlers

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, schedules *ScheduleHandler, jobs *JobHandler, profiles *ProfileHandler, publishers *PublisherHandler) {
	r.Route("/api/schedules", func(r chi.Router) {
		r.Post("/", schedules.Create)
		r.Get("/", schedules.List)
		r.Get("/{id}", schedules.Get)
		r.Put("/{id}", schedules.Reschedule)
		r.Post("/{id}/cancel", schedules.Cancel)
		r.Post("/{id}/retry", schedules.Retry)
	})

	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", jobs.Generate)
		r.Get("/", jobs.List)
		r.Get("/{id}", jobs.Get)
	})

	r.Route("/api/profiles", func(r chi.Router) {
		r.Post("/", profiles.Create)
		r.Get("/", profiles.List)
		r.Get("/{id}", profiles.Get)
		r.Delete("/{id}", profiles.Delete)
	})

	r.Route("/api/publishers", func(r chi.Router) {
		r.Get("/", publishers.List)
		r.Get("/{slug}/health", publishers.Health)
	})
}
