package server

import (
	"context"
	"net/http"
	"time"
)

func (s Server) statusGet() http.HandlerFunc {
	type response struct {
		IsRunning      bool   `json:"is_running"`
		LastRunTime    string `json:"last_run_time"`
		ConnectedUsers int    `json:"connected_users"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		running, lastRun := s.CheckState.Status()
		resp := response{
			IsRunning:      running,
			ConnectedUsers: s.Hub.ConnectedUserCount(),
		}
		if !lastRun.IsZero() {
			resp.LastRunTime = lastRun.Format(time.RFC3339)
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

// checkTrigger starts a sweep by hand. The run is reserved before the 202
// goes out, so concurrent triggers race on the guard and exactly one wins.
// The sweep outlives the request; progress is observable over the status
// endpoint and check status events.
func (s Server) checkTrigger() http.HandlerFunc {
	type response struct {
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		if !s.CheckState.start() {
			s.Logger.Debugf("checkTrigger: Check already running, TraceID: %s", tid)
			http.Error(w, "Price check already running", http.StatusConflict)
			return
		}

		s.Logger.Infof("checkTrigger: Starting manual price check, TraceID: %s", tid)
		go func() {
			defer s.CheckState.finish()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := s.runPriceCheck(ctx); err != nil {
				s.Logger.Errorf("checkTrigger: Manual check failed, err: %+v, TraceID: %s", err, tid)
			}
		}()

		s.writeJsonResponse(w, response{Message: "Price check started"}, http.StatusAccepted)
	}
}
