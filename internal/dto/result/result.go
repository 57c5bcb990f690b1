package result

// Error is the body of every 401/403/404/405/500 response.
type Error struct {
	Detail string `json:"detail"`
}

// Fail returns an error body carrying msg.
func Fail(msg string) Error {
	return Error{Detail: msg}
}

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

// Invalid returns a single-field validation body.
func Invalid(field, msg string) FieldErrors {
	return FieldErrors{field: {msg}}
}

// Add appends msg to field.
func (f FieldErrors) Add(field, msg string) FieldErrors {
	f[field] = append(f[field], msg)
	return f
}

// Page is the limit/offset envelope returned when a client asks for a limit.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

