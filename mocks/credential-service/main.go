// Mock credential service for local development. Serves the two endpoints
// the provisioning client calls, backed by a static in-memory tenant table.
//
// Usage: go run . [-addr :9090]
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
)

type tenant struct {
	Residency  string
	Database   string
	User       string
	Password   string
	Host       string
	Port       int
	Connection string
}

var tenants = map[string]tenant{
	"techcorp": {
		Residency: "ISOLATED", Database: "tenant_techcorp", User: "techcorp",
		Password: "techcorp-dev", Host: "localhost", Port: 5432, Connection: "tenant-techcorp",
	},
	"acme": {
		Residency: "ISOLATED", Database: "tenant_acme", User: "acme",
		Password: "acme-dev", Host: "localhost", Port: 5432, Connection: "tenant-acme",
	},
	"globex": {
		Residency: "CENTRALIZED",
	},
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tenants/{slug}/residency", func(w http.ResponseWriter, r *http.Request) {
		t, ok := tenants[r.PathValue("slug")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]string{"user_data_residency": t.Residency})
	})
	mux.HandleFunc("GET /tenants/{slug}/credentials", func(w http.ResponseWriter, r *http.Request) {
		t, ok := tenants[r.PathValue("slug")]
		if !ok || t.Residency != "ISOLATED" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{
			"credentials": map[string]any{
				"database_name":     t.Database,
				"database_user":     t.User,
				"database_password": t.Password,
				"database_host":     t.Host,
				"database_port":     t.Port,
				"connection_name":   t.Connection,
			},
		})
	})

	handler := requireBearer(mux)
	log.Printf("mock credential service listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, handler))
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
