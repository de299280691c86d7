package server

import (
	"github.com/gorilla/mux"
	"net/http"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMw, s.maxBytesMw)

	api.HandleFunc("/user/register", s.userRegister()).Methods(http.MethodPost)
	api.HandleFunc("/user/login", s.userLogin()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/info", s.userInfo()).Methods(http.MethodGet)
	userAPI.PathPrefix("").Handler(s.notFoundHandler())

	productAPI := api.PathPrefix("/product").Subrouter()
	productAPI.HandleFunc("/search", s.productSearch()).Methods(http.MethodGet)
	productAPI.HandleFunc("/cached", s.productCached()).Methods(http.MethodGet)
	productAPI.HandleFunc("/{productID}/sellers", s.productSellers()).Methods(http.MethodGet)
	productAPI.HandleFunc("/{productID}/history", s.productHistory()).Methods(http.MethodGet)
	productAPI.PathPrefix("").Handler(s.notFoundHandler())

	wishlistAPI := api.PathPrefix("/wishlist").Subrouter()
	wishlistAPI.Use(s.authMw)
	wishlistAPI.HandleFunc("", s.wishlistGet()).Methods(http.MethodGet)
	wishlistAPI.HandleFunc("/add", s.wishlistAdd()).Methods(http.MethodPost)
	wishlistAPI.HandleFunc("/remove", s.wishlistRemove()).Methods(http.MethodPost)
	wishlistAPI.HandleFunc("/check", s.wishlistCheck()).Methods(http.MethodPost)
	wishlistAPI.PathPrefix("").Handler(s.notFoundHandler())

	notificationAPI := api.PathPrefix("/notification").Subrouter()
	notificationAPI.Use(s.authMw)
	notificationAPI.HandleFunc("", s.notificationGetAll()).Methods(http.MethodGet)
	notificationAPI.HandleFunc("/read", s.notificationMarkRead()).Methods(http.MethodPost)
	notificationAPI.HandleFunc("/read-all", s.notificationMarkAllRead()).Methods(http.MethodPost)
	notificationAPI.HandleFunc("/remove", s.notificationRemove()).Methods(http.MethodPost)
	notificationAPI.PathPrefix("").Handler(s.notFoundHandler())

	api.HandleFunc("/status", s.statusGet()).Methods(http.MethodGet)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw)
	adminAPI.HandleFunc("/check", s.checkTrigger()).Methods(http.MethodPost)
	adminAPI.PathPrefix("").Handler(s.notFoundHandler())

	// The WebSocket endpoint skips the API middleware chain: upgrades must
	// not pass through MaxBytesHandler.
	r.HandleFunc("/ws", s.Hub.Handler()).Methods(http.MethodGet)

	return r
}
