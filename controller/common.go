package controller

import "financials/model"

// NewResponse creates a success response with the given data and message.
func NewResponse(data any, message string) model.Response {
	return model.Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(err string) model.Response {
	return model.Response{
		Success: false,
		Error:   err,
	}
}
