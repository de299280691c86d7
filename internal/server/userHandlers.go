package server

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"pricewatch/internal/model"
)

const loginTokenDuration = 30 * 24 * time.Hour

func (s Server) userRegister() http.HandlerFunc {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		UserID string `json:"user_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userRegister: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Name == "" || len(req.Name) > 100 {
			http.Error(w, "Invalid name", http.StatusUnprocessableEntity)
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil || len(req.Email) > 254 {
			http.Error(w, "Invalid email address", http.StatusUnprocessableEntity)
			return
		}
		if len(req.Password) < 8 || len(req.Password) > 72 {
			http.Error(w, "Password must be 8 to 72 characters", http.StatusUnprocessableEntity)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("userRegister: Error hashing password, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		now := primitive.NewDateTimeFromTime(time.Now())
		id, err := s.DB.UserInsert(r.Context(), model.User{
			Name:      req.Name,
			Email:     req.Email,
			Password:  hash,
			Wishlist:  []model.WishlistItem{},
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				s.Logger.Debugf("userRegister: Email already registered: %s, TraceID: %s", req.Email, tid)
				http.Error(w, "Email already registered", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("userRegister: Error inserting User, err: %+v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("userRegister: Registered new user, UserID: %s, TraceID: %s", id, tid)
		s.writeJsonResponse(w, response{UserID: id}, http.StatusCreated)
	}
}

func (s Server) userLogin() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		LoginToken string `json:"login_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userLogin: Error decoding request body, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		user, err := s.DB.UserFindByEmail(r.Context(), req.Email)
		if err != nil {
			s.Logger.Debugf("userLogin: User not found, email: %s, err: %v, TraceID: %s", req.Email, err, tid)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err = bcrypt.CompareHashAndPassword(user.Password, []byte(req.Password)); err != nil {
			s.Logger.Debugf("userLogin: Wrong password, UserID: %s, TraceID: %s", user.ID.Hex(), tid)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		lt, err := s.createLoginToken(user.ID.Hex())
		if err != nil {
			s.Logger.Errorf("userLogin: Error creating login token, UserID: %s, err: %v, TraceID: %s",
				user.ID.Hex(), err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("userLogin: User logged in, UserID: %s, TraceID: %s", user.ID.Hex(), tid)
		s.writeJsonResponse(w, response{LoginToken: lt}, http.StatusOK)
	}
}

func (s Server) userInfo() http.HandlerFunc {
	type response struct {
		UserID       string `json:"user_id"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		WishlistSize int    `json:"wishlist_size"`
		CreatedAt    string `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userInfo: Error getting UserContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{
			UserID:       uc.user.ID.Hex(),
			Name:         uc.user.Name,
			Email:        uc.user.Email,
			WishlistSize: len(uc.user.Wishlist),
			CreatedAt:    uc.user.CreatedAt.Time().Format(time.RFC3339),
		}, http.StatusOK)
	}
}

func (s Server) createLoginToken(userID string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(userID).
		JwtID(uuid.NewString()).
		IssuedAt(now).
		Expiration(now.Add(loginTokenDuration)).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}
