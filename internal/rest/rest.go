package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBytes = 64 << 10

var errInvalidBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}
