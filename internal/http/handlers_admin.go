package http

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Store.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		respond.Error(w, http.StatusBadRequest, "username and email are required")
		return
	}
	if len(req.Password) < 8 || !utf8.ValidString(req.Password) {
		respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	roleID := req.RoleID
	if roleID == 0 {
		roleID = core.RoleUser
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = core.DefaultCurrency
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	hash, err := auth.HashPassword(req.Password, s.deps.BcryptCost)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := s.deps.Store.CreateUser(r.Context(), core.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
		Active:       active,
		Currency:     currency,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created", newUserView(user))
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.deps.Store.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newUserView(user))
}

// handleAdminUpdateUser edits profile fields, role, and the active flag.
// Deactivation takes effect on the user's next request.
func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req adminUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.deps.Store.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if username := strings.TrimSpace(req.Username); username != "" {
		user.Username = username
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = email
	}
	if req.RoleID != 0 {
		user.RoleID = req.RoleID
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if currency := strings.TrimSpace(req.Currency); currency != "" {
		user.Currency = currency
	}
	if req.Password != "" {
		if len(req.Password) < 8 || !utf8.ValidString(req.Password) {
			respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(req.Password, s.deps.BcryptCost)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	if err := s.deps.Store.UpdateUser(r.Context(), user); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", newUserView(user))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	if principal.UserID == id {
		respond.Error(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := s.deps.Store.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user deleted", nil)
}

func (s *Server) handleAdminListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.deps.Store.ListRoles(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, roleView{ID: role.ID, Name: role.Name})
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}

func (s *Server) handleAdminCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	role, err := s.deps.Store.CreateRole(r.Context(), core.Role{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "role created", roleView{ID: role.ID, Name: role.Name})
}

func (s *Server) handleAdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	role := core.Role{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := s.deps.Store.UpdateRole(r.Context(), role); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "role updated", roleView{ID: role.ID, Name: role.Name})
}

func (s *Server) handleAdminDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == core.RoleAdmin || id == core.RoleUser {
		respond.Error(w, http.StatusBadRequest, "built-in roles cannot be deleted")
		return
	}

	if err := s.deps.Store.DeleteRole(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "role deleted", nil)
}

func (s *Server) handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := parsePositiveInt(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = id
	}

	accounts, err := s.deps.Store.ListAccounts(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, newAccountView(a))
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}

func (s *Server) handleAdminCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "user_id and name are required")
		return
	}

	// Reject accounts for users that do not exist.
	if _, err := s.deps.Store.GetUser(r.Context(), req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = core.DefaultCurrency
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	account, err := s.deps.Store.CreateAccount(r.Context(), core.Account{
		UserID:   req.UserID,
		Name:     strings.TrimSpace(req.Name),
		Balance:  core.Money{Cents: req.BalanceCents},
		Currency: currency,
		Active:   active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "account created", newAccountView(account))
}

func (s *Server) handleAdminGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.deps.Store.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newAccountView(account))
}

func (s *Server) handleAdminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.deps.Store.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		account.Name = name
	}
	if req.BalanceCents != 0 {
		account.Balance = core.Money{Cents: req.BalanceCents}
	}
	if currency := strings.TrimSpace(req.Currency); currency != "" {
		account.Currency = currency
	}
	if req.Active != nil {
		account.Active = *req.Active
	}

	if err := s.deps.Store.UpdateAccount(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "account updated", newAccountView(account))
}

func (s *Server) handleAdminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Store.DeleteAccount(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "account deleted", nil)
}
