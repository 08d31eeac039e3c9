package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/daykey"
)

// HandlerGetMonthlyProblems serves a month of the calendar. month and year
// default to the current UTC month, rating narrows the answer to one band.
func (a *Api) HandlerGetMonthlyProblems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	today := daykey.Today(time.Now())

	year, ok := intParam(w, query.Get("year"), "year", today.Year)
	if !ok {
		return
	}
	month, ok := intParam(w, query.Get("month"), "month", today.Month)
	if !ok {
		return
	}

	var band *int32
	if rating := query.Get("rating"); rating != "" {
		value, err := strconv.Atoi(rating)
		if err != nil {
			http.Error(w, "invalid rating, rating must be an integer", http.StatusBadRequest)
			return
		}
		b := int32(value)
		band = &b
	}

	monthly, err := a.AssignmentServiceConfig.GetMonthlyProblems(r.Context(), int32(year), int32(month), band)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, monthly)
}

func (a *Api) HandlerGetProblem(w http.ResponseWriter, r *http.Request) {
	problemID := r.URL.Query().Get("problem_id")
	if problemID == "" {
		http.Error(w, "problem_id is required", http.StatusBadRequest)
		return
	}

	problem, err := a.ProblemServiceConfig.GetProblemById(r.Context(), problemID)
	if err != nil {
		handlerError(err, w)
		return
	}

	marshalAndRespond(w, http.StatusOK, problem)
}

func intParam(w http.ResponseWriter, value, name string, def int) (int, bool) {
	if value == "" {
		return def, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		http.Error(w, "invalid "+name+", "+name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
