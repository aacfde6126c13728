// Standalone mock weather API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/restsensor serve -c example/sensors.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	fmt.Println("Mock weather API starting on :9999")
	fmt.Println("  GET /weather?city=NAME   JSON readings")
	fmt.Println("  GET /status              plain text")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/weather", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": r.URL.Query().Get("city"),
			"main": map[string]any{
				"temp":     float64(500+rand.Intn(2000)) / 100,
				"humidity": 40 + rand.Intn(40),
			},
			"wind": map[string]any{"speed": float64(rand.Intn(100)) / 10},
		})
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	if err := http.ListenAndServe(":9999", r); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
