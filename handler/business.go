package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"omniai/internal/domain"
	"omniai/internal/usecase"
)

type BusinessUseCase interface {
	sessionService[domain.Interaction]
	GenerateAds(ctx context.Context, in usecase.AdRequest) (usecase.BusinessResult, error)
	GenerateInvoice(ctx context.Context, in usecase.InvoiceRequest) (usecase.BusinessResult, error)
	GenerateEmail(ctx context.Context, in usecase.EmailRequest) (usecase.BusinessResult, error)
	ProcessCRM(ctx context.Context, in usecase.CRMRequest) (usecase.BusinessResult, error)
	GenerateMenu(ctx context.Context, in usecase.MenuRequest) (usecase.BusinessResult, error)
	GenerateSEO(ctx context.Context, in usecase.SEORequest) (usecase.BusinessResult, error)
	DescribeProduct(ctx context.Context, in usecase.ProductDescriptionRequest) (usecase.BusinessResult, error)
}

type businessResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    usecase.BusinessResult `json:"data"`
}

func renderBusiness(out usecase.BusinessResult) any {
	return businessResponse{Success: true, Message: out.Message, Data: out}
}

func businessRoutes(uc BusinessUseCase, maxBytes int64) func(chi.Router) {
	return func(r chi.Router) {
		sessionRoutes[domain.Interaction](r, uc, "interactions", maxBytes)
		r.Post("/ads/generate", jsonTool(uc.GenerateAds, renderBusiness, maxBytes))
		r.Post("/invoice/generate", jsonTool(uc.GenerateInvoice, renderBusiness, maxBytes))
		r.Post("/email/generate", jsonTool(uc.GenerateEmail, renderBusiness, maxBytes))
		r.Post("/crm/process", jsonTool(uc.ProcessCRM, renderBusiness, maxBytes))
		r.Post("/menu/generate", jsonTool(uc.GenerateMenu, renderBusiness, maxBytes))
		r.Post("/seo/generate", jsonTool(uc.GenerateSEO, renderBusiness, maxBytes))
		r.Post("/product/description", jsonTool(uc.DescribeProduct, renderBusiness, maxBytes))
	}
}

// jsonTool decodes the body into In, runs the tool and renders its result
// with status 200. A nil render writes the result as is.
func jsonTool[In, Out any](run func(context.Context, In) (Out, error), render func(Out) any, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeJSON(r, maxBytes, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := run(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if render == nil {
			writeJSON(w, http.StatusOK, out)
			return
		}
		writeJSON(w, http.StatusOK, render(out))
	}
}
