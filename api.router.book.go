package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the liveness and book related api endpoints.
// Book routes live under the configured base path.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	base := api.config.Server.BasePath
	router.GET("/", m.public(api.Status))
	router.GET("/status", m.public(api.Status))
	router.GET("/health", m.public(api.Health))

	router.POST(base, m.public(api.CreateBook))
	router.GET(base, m.public(api.GetAllBooks))
	router.GET(base+"/:id", m.public(api.GetOneBook))
	router.PUT(base+"/:id/edit", m.public(api.UpdateBook))
	router.DELETE(base+"/:id/delete", m.public(api.DeleteOneBook))
	router.POST(base+"/books/bulk", m.public(api.CreateBooks))
	router.POST(base+"/bulk", m.public(api.CreateBooks))
	return router
}
