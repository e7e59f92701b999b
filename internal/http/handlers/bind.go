package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into out. Field-level validation happens
// afterwards in the validation package, so the only failures here are
// malformed JSON or type mismatches.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
		return false
	}

	return true
}

func bindErrorDetails(err error) interface{} {
	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeError *json.UnmarshalTypeError

	if errors.As(err, &typeError) {
		return gin.H{
			"json":  "invalid_json_type",
			"field": typeError.Field,
		}
	}

	return gin.H{"reason": err.Error()}
}
