package identitystub

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// transport serves requests in process through fiber's test entry point.
type transport struct {
	app *fiber.App
}

// Transport returns an http.RoundTripper answering every request from app
// without opening a socket. The request host is ignored.
func Transport(app *fiber.App) http.RoundTripper {
	return &transport{app: app}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	resp, err := t.app.Test(req, -1)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

// Client is an http.Client using Transport(app).
func Client(app *fiber.App) *http.Client {
	return &http.Client{Transport: Transport(app)}
}
