package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
)

const notificationListLimit = 50

func (s Server) notificationGetAll() http.HandlerFunc {
	type response struct {
		Notifications []model.PriceAlert `json:"notifications"`
		UnreadCount   int64              `json:"unread_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("notificationGetAll: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		pas, err := s.DB.PriceAlertsFindByUser(r.Context(), uc.user.ID, notificationListLimit)
		if err != nil {
			s.Logger.Errorf("notificationGetAll: Error finding PriceAlerts, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if pas == nil {
			pas = []model.PriceAlert{}
		}

		unread, err := s.DB.PriceAlertUnreadCount(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("notificationGetAll: Error counting unread PriceAlerts, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.writeJsonResponse(w, response{Notifications: pas, UnreadCount: unread}, http.StatusOK)
	}
}

func (s Server) notificationMarkRead() http.HandlerFunc {
	type request struct {
		AlertID string `json:"alert_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("notificationMarkRead: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("notificationMarkRead: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		alertID, err := primitive.ObjectIDFromHex(req.AlertID)
		if err != nil {
			http.Error(w, "Invalid alert ID", http.StatusUnprocessableEntity)
			return
		}

		if err = s.DB.PriceAlertMarkRead(r.Context(), uc.user.ID, alertID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, "Notification not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("notificationMarkRead: Error marking PriceAlert as read, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) notificationMarkAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("notificationMarkAllRead: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.PriceAlertMarkAllRead(r.Context(), uc.user.ID); err != nil {
			s.Logger.Errorf("notificationMarkAllRead: Error marking PriceAlerts as read, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) notificationRemove() http.HandlerFunc {
	type request struct {
		AlertID string `json:"alert_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("notificationRemove: Error getting UserContext, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req request
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("notificationRemove: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		alertID, err := primitive.ObjectIDFromHex(req.AlertID)
		if err != nil {
			http.Error(w, "Invalid alert ID", http.StatusUnprocessableEntity)
			return
		}

		if err = s.DB.PriceAlertDelete(r.Context(), uc.user.ID, alertID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				http.Error(w, "Notification not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("notificationRemove: Error deleting PriceAlert, UserID: %s, err: %+v, TraceID: %s",
				uc.user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
