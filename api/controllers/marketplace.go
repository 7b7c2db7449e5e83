package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type marketplaceClient interface {
	Search(ctx context.Context, keywords string, prices marketplace.PriceRange, limit int) []marketplace.Listing
	Detail(ctx context.Context, id string) *marketplace.Listing
	AffiliateLink(ctx context.Context, productURL string) string
}

type affiliateLinkRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

type marketplaceSearchResponse struct {
	Keywords string                `json:"keywords"`
	Count    int                   `json:"count"`
	Results  []marketplace.Listing `json:"results"`
}

// MarketplaceSearch proxies a keyword search. Upstream failures yield an empty
// result set rather than an error.
func MarketplaceSearch(client marketplaceClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("marketplace"))
			return
		}
		keywords := validators.SanitizeString(r.URL.Query().Get("q"), 200)
		if keywords == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "q is required").
				WithDetails(map[string]any{"field": "q"}))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var prices marketplace.PriceRange
		if prices.Min, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if prices.Max, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results := client.Search(r.Context(), keywords, prices, limit)
		if results == nil {
			results = []marketplace.Listing{}
		}
		responses.WriteSuccess(w, marketplaceSearchResponse{Keywords: keywords, Count: len(results), Results: results})
	}
}

func MarketplaceDetail(client marketplaceClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("marketplace"))
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "listingId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "listing id required"))
			return
		}
		listing := client.Detail(r.Context(), id)
		if listing == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found"))
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// MarketplaceAffiliateLink returns a tracked link, or the input url when the
// marketplace cannot produce one.
func MarketplaceAffiliateLink(client marketplaceClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("marketplace"))
			return
		}
		var body affiliateLinkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link := client.AffiliateLink(r.Context(), body.URL)
		responses.WriteSuccess(w, map[string]string{"url": body.URL, "affiliate_url": link})
	}
}
