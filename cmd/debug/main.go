package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jwulff/bioreactor-go/internal/domain"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: debug <co2|environment> <BASE_URL>")
		fmt.Println("  e.g. debug co2 http://localhost:3000")
		os.Exit(1)
	}
	kind, baseURL := os.Args[1], os.Args[2]

	var path string
	var payload any
	switch kind {
	case domain.KindCO2:
		path = "/api/submit-co2"
		payload = domain.CO2Submission{
			Position1PPM: ptr(800.0),
			Position2PPM: ptr(720.0),
			Position3PPM: ptr(650.0),
		}
	case domain.KindEnvironment:
		path = "/api/submit-environment"
		payload = domain.EnvironmentSubmission{
			PHWolffia:      ptr(6.8),
			PHShells:       ptr(7.4),
			TempSolarFront: ptr(41.5),
			TempSolarRear:  ptr(38.0),
			Voltage:        ptr(12.4),
			CurrentMA:      ptr(480.0),
			Status:         ptr("OK"),
		}
	default:
		fmt.Printf("Error: unknown reading kind %q\n", kind)
		os.Exit(1)
	}

	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println("Payload:")
	fmt.Println(string(data))

	url := baseURL + path
	fmt.Printf("\nSending to %s...\n", url)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Request-ID: %s\n", resp.Header.Get("X-Request-ID"))
	fmt.Printf("Response: %s\n", string(body))
}

func ptr[T any](v T) *T {
	return &v
}
