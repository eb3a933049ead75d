package middleware

import (
	"net/http"

	"github.com/UtpalSharma619/Ashtavakra/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
