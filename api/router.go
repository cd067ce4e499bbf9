package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chinnucsk/mem3/api/handler"
	"github.com/chinnucsk/mem3/membership"
)

func CreateRouter(service *membership.Service) *chi.Mux {
	r := chi.NewRouter()

	handler.NewMembershipHandler(service).Register(r)

	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}
