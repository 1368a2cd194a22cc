package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fernandezvara/collabkit"
)

// entityView is the body of GET /{id}: the entity plus what the caller may do.
type entityView struct {
	Entity any              `json:"entity"`
	Access collabkit.Access `json:"access"`
}

// resource serves the routes shared by every family over a collabkit.Store.
type resource[R collabkit.Role, T any, PT any] struct {
	store  collabkit.Store[R, T, PT]
	log    zerolog.Logger
	decode func(*http.Request) (PT, error)
	patch  func(*http.Request) (patch[PT], error)
	// create defaults to store.Create.
	create func(ctx context.Context, ownerID string, rec PT) (PT, error)
	// extra registers family specific routes under /{id}.
	extra func(r chi.Router)
}

func (h *resource[R, T, PT]) routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.createEntity)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.update)
		r.Delete("/", h.remove)
		r.Put("/visibility", h.visibility)
		r.Post("/members", h.addMember)
		r.Patch("/members/{userID}", h.changeRole)
		r.Delete("/members/{userID}", h.removeMember)
		if h.extra != nil {
			h.extra(r)
		}
	})
}

func (h *resource[R, T, PT]) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}

func (h *resource[R, T, PT]) list(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, total, err := h.store.List(r.Context(), collabkit.GetUserID(r.Context()), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writePage(w, items, Meta{Limit: opts.Limit, Offset: opts.Offset, Total: total})
}

func (h *resource[R, T, PT]) createEntity(w http.ResponseWriter, r *http.Request) {
	rec, err := h.decode(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	create := h.create
	if create == nil {
		create = h.store.Create
	}
	rec, err = create(r.Context(), collabkit.GetUserID(r.Context()), rec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, rec)
}

func (h *resource[R, T, PT]) get(w http.ResponseWriter, r *http.Request) {
	rec, checker, err := h.store.Get(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entityView{Entity: rec, Access: checker.Access()})
}

func (h *resource[R, T, PT]) update(w http.ResponseWriter, r *http.Request) {
	p, err := h.patch(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.store.UpdateWith(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), p.capabilities, p.apply)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (h *resource[R, T, PT]) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *resource[R, T, PT]) visibility(w http.ResponseWriter, r *http.Request) {
	var in visibilityInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.store.SetVisibility(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), in.Visibility)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (h *resource[R, T, PT]) addMember(w http.ResponseWriter, r *http.Request) {
	var in memberInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.UserID == "" || in.Role == "" {
		h.fail(w, r, badRequest("userId and role are required"))
		return
	}
	rec, err := h.store.AddMember(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), in.UserID, R(in.Role))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, rec)
}

func (h *resource[R, T, PT]) changeRole(w http.ResponseWriter, r *http.Request) {
	var in roleInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.Role == "" {
		h.fail(w, r, badRequest("role is required"))
		return
	}
	rec, err := h.store.ChangeMemberRole(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), chi.URLParam(r, "userID"), R(in.Role))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (h *resource[R, T, PT]) removeMember(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.RemoveMember(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func listOptions(r *http.Request) (collabkit.ListOptions, error) {
	var opts collabkit.ListOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badRequest("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badRequest("offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}
