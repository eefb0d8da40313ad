package httpserver

import (
	"net/http"
	"time"

	"chefbot/internal/chat"
)

const (
	readTimeout = 15 * time.Second
	writeSlack  = 15 * time.Second
	idleTimeout = 60 * time.Second
)

// NewServer создаёт http.Server для роутера. backendTimeout это лимит одного
// вызова модели; WriteTimeout рассчитан на все вызовы за ход.
func NewServer(addr string, handler http.Handler, backendTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout(backendTimeout, writeSlack),
		IdleTimeout:  idleTimeout,
	}
}

// writeTimeout покрывает основной вызов и исправление языка, иначе ответ
// теряется уже после сохранения хода.
func writeTimeout(backendTimeout, slack time.Duration) time.Duration {
	return time.Duration(chat.MaxBackendCallsPerTurn)*backendTimeout + slack
}
