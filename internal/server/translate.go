package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"polyglot/internal/translation"
)

const (
	msgEmptyResult    = "Translation failed or returned empty."
	msgInternalServer = "Internal Server Error"
)

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	body := decodeLooseBody(c)

	out := s.translator.Translate(c.Request().Context(), body[translation.FieldSentence], body[translation.FieldTargetLanguage])

	switch out.Kind {
	case translation.KindSuccess:
		return c.JSON(http.StatusOK, translateResponse{TranslatedText: out.Text})
	case translation.KindInvalidInput:
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("%s is required.", out.Field),
		}
	case translation.KindBackendFailure:
		return requestError{
			Status:  out.Status,
			Message: out.Message,
			Code:    out.Status,
		}
	case translation.KindEmptyResult:
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: msgEmptyResult,
		}
	case translation.KindUnexpectedFailure:
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: msgInternalServer,
		}
	default:
		slog.Error("unhandled translation outcome", "kind", out.Kind.String())
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: msgInternalServer,
		}
	}
}

// decodeLooseBody reads the request body as a JSON object of unknown shape. Anything that is not
// a single JSON object yields an empty map, so validation reports the missing fields.
func decodeLooseBody(c echo.Context) map[string]any {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	var body map[string]any
	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(&body); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("discarding malformed translate body", "err", err)
		}
		return map[string]any{}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		slog.Debug("discarding translate body with trailing data")
		return map[string]any{}
	}
	if body == nil {
		return map[string]any{}
	}
	return body
}
