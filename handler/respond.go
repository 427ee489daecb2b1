package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"omniai/internal/observability"
	"omniai/internal/usecase"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type deleteResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorForbidden:
		return http.StatusForbidden
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an errorResponse. Errors that are not a
// *usecase.Error are reported as INTERNAL_ERROR.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		ue = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected_error", Err: err}
	}
	status := statusFor(ue.Code)

	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", ue.Code, "reason", ue.Reason, "err", err)
	} else {
		logger.Warn("request rejected", "code", ue.Code, "reason", ue.Reason, "err", err)
	}

	resp := errorResponse{Error: string(ue.Code), Reason: ue.Reason}
	// Internal details stay in the logs.
	if ue.Code != usecase.ErrorInternal && ue.Err != nil {
		resp.Detail = ue.Err.Error()
	}
	writeJSON(w, status, resp)
}

func badRequest(reason string, err error) error {
	return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: reason, Err: err}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("invalid_body", err)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// parseForm accepts multipart and urlencoded bodies alike.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxBytes)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return badRequest("upload_too_large", err)
	}
	return badRequest("invalid_form", err)
}

// formUpload returns the named file part, or nil when it was not sent.
func formUpload(r *http.Request, name string) (*usecase.Upload, error) {
	file, hdr, err := r.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, badRequest("invalid_"+name, err)
	}
	defer file.Close()
	return readUpload(file, hdr)
}

func readUpload(file multipart.File, hdr *multipart.FileHeader) (*usecase.Upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("invalid_upload", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &usecase.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// userIDFrom reads user_id from the query string, then a JSON body, then a
// form body.
func userIDFrom(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, error) {
	if v := strings.TrimSpace(r.URL.Query().Get("user_id")); v != "" {
		return v, nil
	}
	if isJSON(r) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := decodeJSON(r, maxBytes, &body); err != nil {
			return "", err
		}
		return strings.TrimSpace(body.UserID), nil
	}
	if err := parseForm(w, r, maxBytes); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.FormValue("user_id")), nil
}
