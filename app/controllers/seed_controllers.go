package controllers

import (
	"net/http"

	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/response"
)

type SeedController struct {
	seed *services.SeedService
}

func NewSeedController(seed *services.SeedService) *SeedController {
	return &SeedController{seed: seed}
}

func (c *SeedController) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := c.seed.Seed(r.Context())
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, res)
}
