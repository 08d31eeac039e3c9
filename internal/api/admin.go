package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/auth_service"
	"github.com/Ntropy86/Codeforces-Calendar/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (a *Api) HandlerAdminLogin(w http.ResponseWriter, r *http.Request) {
	var request auth_service.AdminLoginRequest
	err := decodeJsonBody(r.Body, &request)
	if err != nil {
		msg := fmt.Sprintf("invalid request payload, %s", err.Error())
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	response, err := a.AuthServiceConfig.Login(r.Context(), request)
	if err != nil {
		handlerError(err, w)
		return
	}

	// set jwt session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.KeyJwtSessionCookieName,
		Value:    response.Token,
		Expires:  response.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("admin logged in")
	marshalAndRespond(w, http.StatusOK, response)
}

func (a *Api) HandlerTriggerJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")

	response, err := a.JobServiceConfig.Trigger(job)
	if err != nil {
		handlerError(err, w)
		return
	}

	claims, _ := service.GetClaimsFromContext(r.Context())
	log.WithFields(log.Fields{
		"job":     job,
		"task_id": response.TaskID,
		"by":      claims.Subject,
	}).Info("job triggered manually")
	marshalAndRespond(w, http.StatusAccepted, response)
}

func (a *Api) HandlerGetJobRun(w http.ResponseWriter, r *http.Request) {
	record, err := a.JobServiceConfig.LastRun(chi.URLParam(r, "job"))
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, record)
}

func (a *Api) HandlerGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := a.SchedulerConfig.GetTask(taskID)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, task)
}

// HandlerCancelTask cancels a queued or running task and returns its state.
func (a *Api) HandlerCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err = a.SchedulerConfig.CancelTask(taskID); err != nil {
		handlerError(err, w)
		return
	}
	task, err := a.SchedulerConfig.GetTask(taskID)
	if err != nil {
		handlerError(err, w)
		return
	}

	log.WithField("task_id", taskID).Info("task cancelled by admin")
	marshalAndRespond(w, http.StatusOK, task)
}

func taskIDParam(r *http.Request) (uuid.UUID, error) {
	taskID, err := uuid.Parse(chi.URLParam(r, "task_id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid task id, task id must be a uuid")
	}
	return taskID, nil
}
