package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/restsensor"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockWeatherServer(":9999")
	time.Sleep(100 * time.Millisecond)

	humidity, _ := restsensor.NewSubSensor("humidity", "$.main.humidity",
		restsensor.WithFriendlyName("Humidity"),
		restsensor.WithSubValueTemplate("{{ .value }} %"),
	)
	wind, _ := restsensor.NewSubSensor("wind_kmh", "$.wind.speed",
		restsensor.WithFriendlyName("Wind"),
		restsensor.WithSubValueExpr(`round(value_json * 3.6)`),
	)
	active, _ := restsensor.NewSubSensor("active_condition", "$.conditions[?(@.active == true)].kind",
		restsensor.WithFriendlyName("Condition"),
	)

	// grid: 3 cities = 3 sensors, each one request per cycle for all sub-sensors
	sensors, err := restsensor.NewSensorGrid("Weather",
		restsensor.WithURLTemplate("http://localhost:9999/weather?city={{.city}}"),
		restsensor.WithDimensions(map[string][]string{
			"city": {"Oslo", "Lima", "Kyoto"},
		}),
		restsensor.WithGridSensorOptions(
			restsensor.WithUnit("°C"),
			restsensor.WithValueTemplate(`{{ .value_json.main.temp | printf "%.1f" }}`),
			restsensor.WithSubSensors(humidity, wind, active),
		),
	)
	if err != nil {
		slog.Error("failed to create sensor grid", "error", err)
		os.Exit(1)
	}

	// plain-text resource with its own polling interval (overrides global 5s)
	statusRes, _ := restsensor.NewResource("http://localhost:9999/status")
	status, _ := restsensor.NewSensor("Weather API", statusRes,
		restsensor.WithInterval(30*time.Second),
	)
	sensors = append(sensors, status)

	m, err := restsensor.New(
		restsensor.WithSensors(sensors...),
		restsensor.WithPollingInterval(5*time.Second),
		restsensor.WithPort(8080),
		restsensor.WithSnapshotCallback(func(s restsensor.Snapshot) {
			if !s.Available {
				slog.Warn("sensor unavailable", "sensor", s.Name)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  restsensor demo")
	fmt.Println()
	fmt.Println("  Dashboard: http://localhost:8080")
	fmt.Println("  API:       http://localhost:8080/api/sensors")
	fmt.Println("  Metrics:   http://localhost:8080/metrics")
	fmt.Println()
	fmt.Println("  Sensors:")
	fmt.Println("  - 3 cities via grid, each with 3 sub-sensors from one request")
	fmt.Println("  - 1 plain-text status resource, 30s interval")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		slog.Error("restsensor error", "error", err)
		os.Exit(1)
	}
}
