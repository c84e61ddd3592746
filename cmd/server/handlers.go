package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/pricing"
)

const maxBodySize = 1 << 20

type rectangularRequest struct {
	Kategoria string            `json:"kategoria"`
	Pozycje   []rectangularItem `json:"pozycje"`
}

type rectangularItem struct {
	Kategoria string  `json:"kategoria,omitempty"`
	Szerokosc float64 `json:"szerokosc"`
	Wysokosc  float64 `json:"wysokosc"`
	Ilosc     int     `json:"ilosc"`
	Tasma25   bool    `json:"tasma_25"`
	Tasma50   bool    `json:"tasma_50"`
	Karnisz   bool    `json:"karnisz"`
	Drabinka  bool    `json:"drabinka"`
}

type batchResponse struct {
	Kategoria string       `json:"kategoria"`
	Wyniki    []itemResult `json:"wyniki"`
	Blad      bool         `json:"blad"`
}

type itemResult struct {
	Kategoria            string  `json:"kategoria"`
	Szerokosc            float64 `json:"szerokosc"`
	Wysokosc             float64 `json:"wysokosc"`
	Ilosc                int     `json:"ilosc"`
	Cena                 *int64  `json:"cena,omitempty"`
	ZaokraglonaSzerokosc float64 `json:"zaokraglona_szerokosc,omitempty"`
	ZaokraglonaWysokosc  float64 `json:"zaokraglona_wysokosc,omitempty"`
	Error                string  `json:"error,omitempty"`
}

// handleRectangularQuery prices one or more items given as parallel,
// repeatable query parameters.
func (s *server) handleRectangularQuery(w http.ResponseWriter, r *http.Request) {
	category, items, err := parseRectangularQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.evaluateRectangular(w, r, category, items)
}

func (s *server) handleRectangularBatch(w http.ResponseWriter, r *http.Request) {
	var req rectangularRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, pricing.InvalidInput("invalid JSON body: %v", err))
		return
	}

	items := make([]pricing.LineItem, 0, len(req.Pozycje))
	for _, p := range req.Pozycje {
		items = append(items, p.lineItem())
	}
	s.evaluateRectangular(w, r, req.Kategoria, items)
}

func (s *server) evaluateRectangular(w http.ResponseWriter, r *http.Request, category string, items []pricing.LineItem) {
	res, err := s.evaluator.Evaluate(r.Context(), pricing.BatchRequest{
		Line:     pricing.LineRectangular,
		Category: category,
		Items:    items,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := batchResponse{
		Kategoria: res.Category,
		Wyniki:    make([]itemResult, 0, len(res.Results)),
		Blad:      res.Failed,
	}
	for _, lr := range res.Results {
		out := itemResult{
			Kategoria: lr.Category,
			Szerokosc: lr.Item.Width,
			Wysokosc:  lr.Item.Height,
			Ilosc:     max(lr.Item.Quantity, 1),
		}
		if lr.OK() {
			price := lr.Quote.Price.IntPart()
			out.Cena = &price
			out.ZaokraglonaSzerokosc = lr.Quote.MatchedWidth
			out.ZaokraglonaWysokosc = lr.Quote.MatchedHeight
		} else {
			out.Error = s.publicMessage(lr.Err)
		}
		resp.Wyniki = append(resp.Wyniki, out)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handlePleatedPrice(w http.ResponseWriter, r *http.Request) {
	system, item, err := parsePleatedQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	q, err := s.evaluator.Quote(r.Context(), pricing.LineCombinedWidth, system, item)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cena": q.Price.IntPart()})
}

func (s *server) handlePleatedMaterials(w http.ResponseWriter, r *http.Request) {
	names, err := s.evaluator.Materials(r.Context(), strings.TrimSpace(r.URL.Query().Get("system")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"materialy": names})
}

func (p rectangularItem) lineItem() pricing.LineItem {
	item := pricing.LineItem{
		Category:   strings.TrimSpace(p.Kategoria),
		Width:      p.Szerokosc,
		Height:     p.Wysokosc,
		Quantity:   p.Ilosc,
		LadderTape: p.Drabinka,
	}
	if p.Tasma25 {
		item.Accessories = append(item.Accessories, pricing.AccessoryWebbing25)
	}
	if p.Tasma50 {
		item.Accessories = append(item.Accessories, pricing.AccessoryWebbing50)
	}
	if p.Karnisz {
		item.Accessories = append(item.Accessories, pricing.AccessoryCurtainRail)
	}
	return item
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status of the error kind. Anything that is
// not a pricing error is a 500 with a generic message.
func (s *server) writeError(w http.ResponseWriter, err error) {
	var perr *pricing.Error
	if !errors.As(err, &perr) {
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, perr.HTTPStatus(), map[string]string{"error": s.publicMessage(err)})
}

// publicMessage renders the error kind, message and catalog key without
// the cause, which may name files or driver errors.
func (s *server) publicMessage(err error) string {
	var perr *pricing.Error
	if !errors.As(err, &perr) {
		return "internal server error"
	}
	public := pricing.Error{Kind: perr.Kind, Message: perr.Message, Key: perr.Key}
	if perr.Kind == pricing.KindMalformedCatalog {
		s.logger.Error("malformed catalog", zap.Error(err))
		public.Message = "price list is malformed"
	}
	return public.Error()
}
