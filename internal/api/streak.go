package api

import (
	"fmt"
	"net/http"

	"github.com/Ntropy86/Codeforces-Calendar/internal/service/streak_service"
	log "github.com/sirupsen/logrus"
)

// HandlerGetStreak serves the streak, with the full ledger when days=true.
func (a *Api) HandlerGetStreak(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		http.Error(w, "handle is required", http.StatusBadRequest)
		return
	}

	var (
		status streak_service.StreakStatus
		err    error
	)
	if r.URL.Query().Get("days") == "true" {
		status, err = a.StreakServiceConfig.GetLedger(r.Context(), handle)
	} else {
		status, err = a.StreakServiceConfig.GetStreak(r.Context(), handle)
	}
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, status)
}

func (a *Api) HandlerVerifyToday(w http.ResponseWriter, r *http.Request) {
	var request handleRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}

	result, err := a.SubmissionServiceConfig.VerifyToday(r.Context(), request.Handle)
	if err != nil {
		handlerError(err, w)
		return
	}

	// unsuccessful verification is an answer, not an error
	marshalAndRespond(w, http.StatusOK, result)
}

func (a *Api) HandlerSetStreakDay(w http.ResponseWriter, r *http.Request) {
	var request streakDayRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}
	if request.Day.IsZero() {
		http.Error(w, "day is required", http.StatusBadRequest)
		return
	}

	status, err := a.StreakServiceConfig.SetDay(r.Context(), request.Handle, request.Day, request.Solved)
	if err != nil {
		handlerError(err, w)
		return
	}

	log.WithFields(log.Fields{
		"handle": request.Handle,
		"day":    request.Day.String(),
		"solved": request.Solved,
	}).Info("streak day overwritten by admin")
	marshalAndRespond(w, http.StatusOK, status)
}

func (a *Api) HandlerResetStreakDays(w http.ResponseWriter, r *http.Request) {
	var request streakMonthRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}

	status, err := a.StreakServiceConfig.ResetMonth(r.Context(), request.Handle, request.Year, request.Month)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, status)
}

func (a *Api) HandlerCleanupStreakDays(w http.ResponseWriter, r *http.Request) {
	var request handleRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}

	removed, reconciled, err := a.StreakServiceConfig.Prune(r.Context(), request.Handle)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, cleanupResponse{
		Handle:      request.Handle,
		RemovedDays: removed,
		Reconciled:  reconciled,
	})
}

func (a *Api) HandlerReconcileStreak(w http.ResponseWriter, r *http.Request) {
	var request handleRequest
	if err := decodeJsonBody(r.Body, &request); err != nil {
		http.Error(w, fmt.Sprintf("invalid request payload, %s", err.Error()), http.StatusBadRequest)
		return
	}

	status, err := a.StreakServiceConfig.Reconcile(r.Context(), request.Handle)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, status)
}
