// Command jsonp-echo serves a JSONP endpoint that reports the query it was
// called with. With JSONP_SECRET set it also checks request signatures.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/withmartian/ares/jsonp"
)

const signatureParam = "&signature="

// callbackPattern accepts plain JavaScript identifiers only.
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration
	config := jsonp.LoadConfig()
	if *configPath != "" {
		if config, err = jsonp.LoadConfigFile(*configPath); err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}
	}
	logger.Info("Starting server", zap.String("port", config.Port), zap.Bool("signed", config.Secret != ""))

	http.Handle("/", newMux(config.Secret, logger))

	// Start the server
	addr := ":" + config.Port
	logger.Info("Server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newMux(secret string, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/echo", handleEcho(secret, logger))
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleEcho handles GET /echo
// Calls the requested callback with the decoded query
func handleEcho(secret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()
		callback := query.Get("callback")
		if !callbackPattern.MatchString(callback) {
			http.Error(w, "Invalid callback", http.StatusBadRequest)
			return
		}

		signed := false
		if secret != "" {
			if !verifyRequest(r, secret) {
				logger.Warn("Rejected unsigned request", zap.String("callback", callback))
				http.Error(w, "Invalid signature", http.StatusForbidden)
				return
			}
			signed = true
		}

		echo := make(map[string]any, len(query))
		for key, values := range query {
			if key == "callback" || key == "signature" {
				continue
			}
			if len(values) == 1 {
				echo[key] = values[0]
			} else {
				echo[key] = values
			}
		}

		payload, err := json.Marshal(map[string]any{"query": echo, "signed": signed})
		if err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(callback + "(" + string(payload) + ");"))
	}
}

// verifyRequest checks the trailing signature parameter against the
// query that precedes it. The signed base URL is rebuilt from the request;
// when the caller's URL carried its own query, the client appended its
// parameters with "&", so every "&" is tried as the boundary.
func verifyRequest(r *http.Request, secret string) bool {
	raw := r.URL.RawQuery
	i := strings.LastIndex(raw, signatureParam)
	if i < 0 {
		return false
	}
	signature, err := unescape(raw[i+len(signatureParam):])
	if err != nil {
		return false
	}
	signed := raw[:i]

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + r.Host + r.URL.Path

	if jsonp.Verify(base, signed, secret, signature) {
		return true
	}
	for j := 0; j < len(signed); j++ {
		if signed[j] != '&' {
			continue
		}
		if jsonp.Verify(base+"?"+signed[:j], signed[j+1:], secret, signature) {
			return true
		}
	}
	return false
}

// unescape reverses the signature encoding, which writes * and ' as
// %252A and %2527.
func unescape(s string) (string, error) {
	s = strings.NewReplacer("%252A", "*", "%2527", "'").Replace(s)
	return url.PathUnescape(s)
}
