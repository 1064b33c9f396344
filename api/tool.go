package api

import (
	"encoding/json"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// JSON .
type JSON map[string]interface{}

// JSONWrapper .
func JSONWrapper(f func(*Request) (int, interface{})) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := NewRequest(req)
		w.Header().Set("Content-Type", "application/json")
		code, result := f(r)
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Debugf("[JSONWrapper] write response failed %v", err)
		}
	}
}

// TextWrapper .
func TextWrapper(f func(*Request) (int, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := NewRequest(req)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		code, text := f(r)
		w.WriteHeader(code)
		if _, err := io.WriteString(w, text); err != nil {
			log.Debugf("[TextWrapper] write response failed %v", err)
		}
	}
}
