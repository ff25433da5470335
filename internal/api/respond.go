package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/store"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeErr maps a service error onto a status code
func writeErr(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, model.ErrInvalidID):
		writeError(w, http.StatusBadRequest, model.ErrInvalidID.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, model.ErrNotFound.Error())
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, store.ErrExists.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into v. An empty body is an error.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &model.ValidationError{Message: "request body is required"}
		}
		return &model.ValidationError{Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

// pathID parses the {id} path segment as a positive integer
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidID
	}
	return id, nil
}
