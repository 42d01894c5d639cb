package http

import (
	"net/http"

	"fintrack/internal/http/respond"
)

// Admin CRUD over user-owned data (categories, transactions, budgets).
// The target user comes from the route; the handlers delegate to the
// same owner-scoped logic the user surface runs, so ownership checks,
// guards, and budget validation apply identically.

// adminTargetUser resolves and verifies the {id} route segment. A
// missing user is a 404 before any entity lookup runs.
func (s *Server) adminTargetUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if _, err := s.deps.Store.GetUser(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return 0, false
	}
	return id, true
}

func (s *Server) adminTargetItem(w http.ResponseWriter, r *http.Request) (userID, itemID int64, ok bool) {
	userID, ok = s.adminTargetUser(w, r)
	if !ok {
		return 0, 0, false
	}
	itemID, err := pathItemID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return userID, itemID, true
}

func (s *Server) handleAdminListUserCategories(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.listCategories(w, r, userID)
	}
}

func (s *Server) handleAdminCreateUserCategory(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.createCategory(w, r, userID)
	}
}

func (s *Server) handleAdminGetUserCategory(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.getCategory(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminUpdateUserCategory(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.updateCategory(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminDeleteUserCategory(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.deleteCategory(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminListUserTransactions(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.listTransactions(w, r, userID)
	}
}

func (s *Server) handleAdminCreateUserTransaction(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.createTransaction(w, r, userID)
	}
}

func (s *Server) handleAdminGetUserTransaction(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.getTransaction(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminUpdateUserTransaction(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.updateTransaction(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminDeleteUserTransaction(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.deleteTransaction(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminListUserBudgets(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.listBudgets(w, r, userID)
	}
}

func (s *Server) handleAdminCreateUserBudget(w http.ResponseWriter, r *http.Request) {
	if userID, ok := s.adminTargetUser(w, r); ok {
		s.createBudget(w, r, userID)
	}
}

func (s *Server) handleAdminGetUserBudget(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.getBudget(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminUpdateUserBudget(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.updateBudget(w, r, userID, itemID)
	}
}

func (s *Server) handleAdminDeleteUserBudget(w http.ResponseWriter, r *http.Request) {
	if userID, itemID, ok := s.adminTargetItem(w, r); ok {
		s.deleteBudget(w, r, userID, itemID)
	}
}
