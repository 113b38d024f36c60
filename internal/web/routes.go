package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	recognitionsHandler := handlers.NewRecognitionsHandler(s.deps.Gateway)
	unknownFacesHandler := handlers.NewUnknownFacesHandler(s.deps.Quarantine)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Attendance)
	capturesHandler := handlers.NewCapturesHandler(s.deps.Captures)
	dashboardHandler := handlers.NewDashboardHandler(s.deps.Directory, s.deps.Attendance, s.deps.QuarantineStore, s.deps.Regions)
	employeesHandler := handlers.NewEmployeesHandler(s.deps.Directory, s.deps.Employees, s.deps.ReferenceImages, s.deps.Recounter)
	regionsHandler := handlers.NewRegionsHandler(s.deps.Regions, s.deps.Recounter)
	camerasHandler := handlers.NewCamerasHandler(s.deps.Directory, s.deps.Cameras)
	imagesHandler := handlers.NewImagesHandler(s.deps.Images)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.RequireToken(s.config.Web.APIToken))

		// Ingestion
		r.Post("/recognitions", recognitionsHandler.Create)

		// Quarantine review
		r.Get("/unknown-faces", unknownFacesHandler.List)
		r.Get("/unknown-faces/{id}", unknownFacesHandler.Get)
		r.Get("/unknown-faces/{id}/candidates", unknownFacesHandler.Candidates)
		r.Post("/unknown-faces/{id}/link", unknownFacesHandler.Link)

		// Attendance and journal
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/captures", capturesHandler.List)
		r.Get("/captures/employee/{code}", capturesHandler.ByEmployee)
		r.Get("/dashboard", dashboardHandler.Get)

		// Directory
		r.Get("/employees", employeesHandler.List)
		r.Post("/employees", employeesHandler.Create)
		r.Get("/employees/{id}", employeesHandler.Get)
		r.Put("/employees/{id}", employeesHandler.Update)
		r.Delete("/employees/{id}", employeesHandler.Deactivate)
		r.Get("/employees/{id}/images", employeesHandler.Images)

		r.Get("/regions", regionsHandler.List)
		r.Post("/regions", regionsHandler.Create)
		r.Get("/regions/{id}", regionsHandler.Get)
		r.Put("/regions/{id}", regionsHandler.Update)
		r.Post("/regions/{id}/recount", regionsHandler.Recount)

		r.Get("/cameras", camerasHandler.List)
		r.Post("/cameras", camerasHandler.Create)
		r.Put("/cameras/{id}", camerasHandler.Update)

		// Stored face crops
		r.Get("/images/*", imagesHandler.Serve)
	})
}
