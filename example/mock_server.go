package main

import (
	"encoding/json"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// reading is the drifting weather state of one city.
type reading struct {
	temp     float64
	humidity int
	wind     float64
}

// StartMockWeatherServer runs a mock weather API whose readings drift a
// little on every request. /status answers in plain text so the demo also
// shows a non-JSON resource.
// Call this in a goroutine before creating sensors.
func StartMockWeatherServer(addr string) {
	var (
		cities = make(map[string]*reading)
		mu     sync.Mutex
	)

	r := chi.NewRouter()
	r.Get("/weather", func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("city")

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		rd, ok := cities[city]
		if !ok {
			rd = &reading{temp: 5 + rand.Float64()*20, humidity: 40 + rand.Intn(40), wind: rand.Float64() * 10}
			cities[city] = rd
		}
		rd.temp += rand.Float64() - 0.5
		rd.humidity = max(0, min(100, rd.humidity+rand.Intn(5)-2))
		rd.wind = math.Abs(rd.wind + rand.Float64() - 0.5)
		resp := map[string]any{
			"name": city,
			"main": map[string]any{
				"temp":     math.Round(rd.temp*100) / 100,
				"humidity": rd.humidity,
			},
			"wind": map[string]any{"speed": math.Round(rd.wind*10) / 10},
			"conditions": []map[string]any{
				{"kind": "cloud", "active": rd.humidity > 60},
				{"kind": "wind", "active": rd.wind > 5},
			},
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
