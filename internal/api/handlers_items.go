package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/WesleyKlop/journali-api/internal/api/respond"
	"github.com/WesleyKlop/journali-api/internal/api/validate"
	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/model"
	"github.com/WesleyKlop/journali-api/internal/services"
)

// ItemsHandler serves the polymorphic listing.
type ItemsHandler struct {
	svc *services.ItemService
}

func NewItemsHandler(svc *services.ItemService) *ItemsHandler { return &ItemsHandler{svc: svc} }

// List GET /api/items?parent_id={id}
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var parentID *string
	if v, present := r.URL.Query()["parent_id"]; present && len(v) > 0 {
		parentID = &v[0]
	}
	out, err := h.svc.FindByParent(r.Context(), parentID, caller)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// kindHandler serves create/find/update/delete for one item kind. Request
// bodies are flat: the parent link and due date sit beside the kind's fields.
type kindHandler[M model.Payload, P any] struct {
	svc  *services.ItemService
	kind services.Kind[M, P]
}

func registerKind[M model.Payload, P any](r *mux.Router, svc *services.ItemService, k services.Kind[M, P]) {
	h := &kindHandler[M, P]{svc: svc, kind: k}
	base := "/api/" + k.Name
	r.HandleFunc(base, h.create).Methods(http.MethodPost)
	r.HandleFunc(base+"/{id}", h.find).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id}", h.update).Methods(http.MethodPatch)
	r.HandleFunc(base+"/{id}", h.delete).Methods(http.MethodDelete)
}

// create POST /api/{kind}
func (h *kindHandler[M, P]) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	raw, err := validate.ReadBody(r.Body)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	var link model.ItemPatch
	var payload M
	if err := validate.DecodeJSON(raw, &link); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if err := validate.DecodeJSON(raw, &payload); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}

	in := services.NewItem[M]{
		ParentID:   link.ParentID,
		ParentType: link.ParentType,
		DueDate:    link.DueDate,
		Payload:    payload,
	}
	view, err := services.Create(r.Context(), h.svc, h.kind, in, caller)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, view)
}

// find GET /api/{kind}/{id}
func (h *kindHandler[M, P]) find(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	view, err := services.Find(r.Context(), h.svc, h.kind, mux.Vars(r)["id"], caller)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, view)
}

// update PATCH /api/{kind}/{id}
func (h *kindHandler[M, P]) update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	raw, err := validate.ReadBody(r.Body)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	var patch services.Patch[P]
	if err := validate.DecodeJSON(raw, &patch.Item); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if err := validate.DecodeJSON(raw, &patch.Fields); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := services.Update(r.Context(), h.svc, h.kind, mux.Vars(r)["id"], patch, caller)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// delete DELETE /api/{kind}/{id}
func (h *kindHandler[M, P]) delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := services.Delete(r.Context(), h.svc, h.kind, mux.Vars(r)["id"], caller); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	u, ok := auth.CallerFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w)
		return "", false
	}
	return u.ID, true
}
