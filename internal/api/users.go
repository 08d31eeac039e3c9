package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/user_service"
	log "github.com/sirupsen/logrus"
)

func (a *Api) HandlerCreateUser(w http.ResponseWriter, r *http.Request) {
	var request user_service.CreateUserRequest
	err := decodeJsonBody(r.Body, &request)
	if err != nil {
		msg := fmt.Sprintf("invalid request payload, %s", err.Error())
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	user, err := a.UserServiceConfig.CreateUser(r.Context(), request)
	if err != nil {
		// the stored user is still useful to clients that race on signup
		if errors.Is(err, potd_errors.ErrEntityAlreadyExist) {
			marshalAndRespond(w, http.StatusConflict, userExistsResponse{
				Message: "user already exists",
				User:    user,
			})
			return
		}
		handlerError(err, w)
		return
	}

	log.WithField("handle", user.Handle).Info("user registered")
	marshalAndRespond(w, http.StatusCreated, user)
}

func (a *Api) HandlerGetUser(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		http.Error(w, "handle is required", http.StatusBadRequest)
		return
	}

	user, err := a.UserServiceConfig.GetUser(r.Context(), handle)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, user)
}

// HandlerRefreshRating pulls the current codeforces rating of one user.
func (a *Api) HandlerRefreshRating(w http.ResponseWriter, r *http.Request) {
	var request handleRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}

	user, err := a.UserServiceConfig.RefreshRating(r.Context(), request.Handle)
	if err != nil {
		handlerError(err, w)
		return
	}

	log.WithFields(log.Fields{
		"handle": user.Handle,
		"band":   user.Band,
	}).Info("user rating refreshed")
	marshalAndRespond(w, http.StatusOK, user)
}
