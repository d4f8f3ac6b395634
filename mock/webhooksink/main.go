package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// Local sink for acquisition webhooks. Point webhook.url at
// http://localhost:8081/events and watch deliveries in the console.
func main() {
	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("[Webhook Sink] read error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var event map[string]any
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("[Webhook Sink] invalid JSON: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		log.Printf("[Webhook Sink] %s %s - %s", r.Method, r.URL.Path, body)
		w.WriteHeader(http.StatusNoContent)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Webhook Sink] Health write error: %v", err)
		}
	})

	log.Println("Mock webhook sink running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
