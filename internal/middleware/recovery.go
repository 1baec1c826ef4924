package middleware

import (
	"net/http"
	"runtime/debug"

	"fuelsync-backend/pkg/utils"

	log "github.com/sirupsen/logrus"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("PANIC RECOVERED: %v\n%s", err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
