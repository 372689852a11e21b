package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/models"
)

// Both endpoints answer with the session token in the Authorization header;
// the body stays empty so credentials never transit in a response payload.

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Msg("malformed registration body")
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}

	registeredUser, err := h.services.AuthService.RegisterUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("registration rejected")
			http.Error(w, "invalid data provided", http.StatusBadRequest)
		case errors.Is(err, store.ErrLoginAlreadyExists):
			log.Err(err).Str("login", user.Login).Msg("login already taken")
			http.Error(w, "login already exists", http.StatusConflict)
		default:
			log.Err(err).Msg("registration failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.issueSession(w, r, registeredUser)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Msg("malformed login body")
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}

	foundUser, err := h.services.AuthService.Login(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("login rejected")
			http.Error(w, "invalid data provided", http.StatusBadRequest)
		case errors.Is(err, store.ErrNoUserWasFound) || errors.Is(err, service.ErrWrongPassword):
			// one message for both: which half failed is not the caller's business
			log.Err(err).Msg("credentials rejected")
			http.Error(w, "invalid login/password", http.StatusUnauthorized)
		default:
			log.Err(err).Msg("login failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	log.Debug().Int64("user_id", foundUser.UserID).Msg("session opened")
	h.issueSession(w, r, foundUser)
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user models.User) {
	token, err := h.services.AuthService.CreateToken(r.Context(), user)
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("minting session token failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token.SignedString))
	w.WriteHeader(http.StatusOK)
}
