package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 4096

// DecodeResponse decodes a JSON response into target. Non-2xx responses
// become *errors.APIError.
func DecodeResponse(resp *http.Response, service string, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug().Err(err).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &errors.APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   resp.Request.URL.String(),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}
