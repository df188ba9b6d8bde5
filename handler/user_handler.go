package handler

import (
	"context"
	"errors"
	"go-music-api/common"
	"go-music-api/model"
	"go-music-api/service"
	"net/http"
)

type Registrar interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
}

type UserHandler struct {
	users Registrar
}

func NewUserHandler(users Registrar) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user  body      model.RegisterRequest  true  "New user"
// @Success      201   {object}  model.User
// @Failure      400   {object}  common.AppError
// @Failure      409   {object}  common.AppError
// @Router       /register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return common.NewAppError(http.StatusConflict, "Email already registered", nil)
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			return common.NewAppError(http.StatusConflict, "Username already taken", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Error creating user", err)
	}

	common.WriteJSON(w, http.StatusCreated, user)
	return nil
}

// Me godoc
// @Summary      Current user
// @Description  Returns the user the bearer token belongs to.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      401  {object}  common.AppError
// @Router       /me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return unauthenticated()
	}
	common.WriteJSON(w, http.StatusOK, user)
	return nil
}
