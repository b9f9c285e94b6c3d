package dto

// Res is the body returned when a request is rejected before reaching a handler.
type Res struct {
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
}

// ErrorRes is the body of every failed API call.
type ErrorRes struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}
