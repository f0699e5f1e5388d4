package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// instanceID is reported by the health endpoint so restarts are observable.
var instanceID = uuid.New().String()

// HealthHandler returns the status of the process.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	const resp = `{"name":"parley","message":"ready to serve","status":"pass","checks":[],"instance":"%s"}`
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, resp, instanceID)
}
