package controllers

import "net/http"

const HealthBanner = "pollhub registry - online"

type HTTPController struct{}

func NewHTTPController() *HTTPController {
	return &HTTPController{}
}

// Home: GET / returns a plain-text liveness banner.
func (c *HTTPController) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(HealthBanner))
}
