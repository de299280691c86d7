package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"
	"pricewatch/internal/client"
	"pricewatch/internal/database"
	"pricewatch/internal/ws"
)

type Server struct {
	DB              database.Database
	Client          client.Client
	Hub             *ws.Hub
	Logger          logger
	AuthSecretKey   jwk.Key
	DefaultLocation string
	CheckState      *CheckState
}

type logger interface {
	Trace(v ...any)
	Debug(v ...any)
	Info(v ...any)
	Warn(v ...any)
	Error(v ...any)
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
