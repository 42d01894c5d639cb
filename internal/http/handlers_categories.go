package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
)

// The owner handlers resolve the user from the request principal; the
// admin panel reaches the same logic with a target user id from the
// route (handlers_admin_owned.go).

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.listCategories(w, r, principal.UserID)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request, userID int64) {
	t := core.CategoryType(r.URL.Query().Get("type"))
	if t != "" && !t.Valid() {
		respond.Error(w, http.StatusBadRequest, "invalid type, want income or expense")
		return
	}

	categories, err := s.deps.Store.ListCategories(r.Context(), userID, t)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, newCategoryView(c))
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.createCategory(w, r, principal.UserID)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	category := core.Category{
		UserID: userID,
		Name:   req.Name,
		Type:   core.CategoryType(req.Type),
		Icon:   req.Icon,
		Color:  req.Color,
	}
	if err := category.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.deps.Store.CreateCategory(r.Context(), category)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "category created", newCategoryView(created))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.getCategory(w, r, principal.UserID, id)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request, userID, id int64) {
	category, err := s.deps.Store.GetCategory(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newCategoryView(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.updateCategory(w, r, principal.UserID, id)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, userID, id int64) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// The type is immutable after creation; the update keeps the stored one.
	existing, err := s.deps.Store.GetCategory(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	category := core.Category{
		ID:     id,
		UserID: userID,
		Name:   req.Name,
		Type:   existing.Type,
		Icon:   req.Icon,
		Color:  req.Color,
	}
	if err := category.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.deps.Store.UpdateCategory(r.Context(), category); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "category updated", newCategoryView(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.deleteCategory(w, r, principal.UserID, id)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request, userID, id int64) {
	if err := s.deps.Store.DeleteCategory(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "category deleted", nil)
}
