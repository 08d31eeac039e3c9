package codeforces

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// no throttling in tests
	client, err := NewClient(srv.URL+"/api", 1000)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestProblemsetProblems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/problemset.problems" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"OK","result":{"problems":[
			{"contestId":2000,"index":"B","name":"Newest","tags":[]},
			{"contestId":1999,"index":"A","name":"Older","rating":800,"tags":["math"]}
		],"problemStatistics":[]}}`)
	})

	problems, err := client.ProblemsetProblems(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 2 {
		t.Fatalf("got %d problems, want 2", len(problems))
	}
	if problems[0].Rating != nil {
		t.Errorf("expected unrated newest problem, got %v", *problems[0].Rating)
	}
	if problems[1].ID() != "1999A" || *problems[1].Rating != 800 {
		t.Errorf("unexpected second problem %+v", problems[1])
	}
	if problems[1].URL() != "https://codeforces.com/problemset/problem/1999/A" {
		t.Errorf("unexpected url %s", problems[1].URL())
	}
}

func TestUserStatusQueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("handle") != "tourist" || q.Get("from") != "1" || q.Get("count") != "50" {
			t.Errorf("unexpected query %v", q)
		}
		fmt.Fprint(w, `{"status":"OK","result":[
			{"id":10,"contestId":1850,"creationTimeSeconds":1700000000,
			 "problem":{"contestId":1850,"index":"A","name":"x"},"verdict":"OK"}
		]}`)
	})

	subs, err := client.UserStatus(t.Context(), "tourist", 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || !subs[0].Accepted() || subs[0].Problem.ID() != "1850A" {
		t.Errorf("unexpected submissions %+v", subs)
	}
}

func TestFailedStatusIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"FAILED","comment":"handle: User with handle nobody not found"}`)
	})

	_, err := client.UserInfo(t.Context(), "nobody")
	if !errors.Is(err, potd_errors.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `<html>bad gateway</html>`)
	})

	_, err := client.ProblemsetProblems(t.Context())
	if !errors.Is(err, potd_errors.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestUserInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handles") != "Petr" {
			t.Errorf("unexpected handles %v", r.URL.Query())
		}
		fmt.Fprint(w, `{"status":"OK","result":[{"handle":"Petr","rating":3100}]}`)
	})

	user, err := client.UserInfo(t.Context(), "Petr")
	if err != nil {
		t.Fatal(err)
	}
	if user.Handle != "Petr" || user.Rating == nil || *user.Rating != 3100 {
		t.Errorf("unexpected user %+v", user)
	}
}
