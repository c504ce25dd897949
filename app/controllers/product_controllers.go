package controllers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/response"
)

type ProductController struct {
	catalog *services.CatalogService
	bind    *bind.Binder
}

func NewProductController(catalog *services.CatalogService, b *bind.Binder) *ProductController {
	return &ProductController{catalog: catalog, bind: b}
}

// Index lists products. Query: category, featured, search, min_price,
// max_price.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	f, err := productFilter(r)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	ps, err := c.catalog.List(r.Context(), f)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, ps)
}

func productFilter(r *http.Request) (models.ProductFilter, error) {
	q := r.URL.Query()
	f := models.ProductFilter{
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	fields := map[string]string{}

	if raw := q.Get("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields["featured"] = "must be a boolean"
		} else {
			f.Featured = &v
		}
	}
	for key, dst := range map[string]**float64{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			fields[key] = "must be a number"
			continue
		}
		*dst = &v
	}

	if len(fields) > 0 {
		return f, apperror.Invalid(fields)
	}
	return f, nil
}

func (c *ProductController) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.catalog.Categories(r.Context())
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, map[string][]string{"categories": cats})
}

func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	p, err := c.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, p)
}

func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	p, err := c.catalog.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, p)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ProductPatch
	if err := c.bind.JSON(w, r, &patch); err != nil {
		response.Fail(w, r, err)
		return
	}

	p, err := c.catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, p)
}

func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	msg, err := c.catalog.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Message(w, msg)
}

// UploadImage accepts multipart/form-data with the image in field "file".
func (c *ProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		response.Fail(w, r, apperror.Wrap(apperror.BadRequest, "Image must be 5MB or smaller and sent as multipart field \"file\"", err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Fail(w, r, apperror.Invalid(map[string]string{"file": "is required"}))
		return
	}
	defer file.Close()

	p, err := c.catalog.UploadImage(r.Context(), chi.URLParam(r, "id"), services.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, p)
}
