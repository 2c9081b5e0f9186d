// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// validate is the shared validator instance. validator caches struct
// metadata internally, so a single instance is reused across requests.
var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeAndValidate decodes the request body into dst and runs struct
// validation. Returns a client-facing message on failure.
func decodeAndValidate(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid JSON body", false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Sprintf("field %q failed validation rule %q", fe.Field(), fe.Tag()), false
		}
		return "request validation failed", false
	}
	return "", true
}
