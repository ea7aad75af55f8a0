package response

// Response is the envelope every endpoint answers with.
// Status repeats the HTTP status code of the reply.
type Response struct {
	Mensaje string      `json:"mensaje"`
	Objeto  interface{} `json:"objeto"`
	Status  int         `json:"status"`
}

// Success wraps a payload in the standard envelope
func Success(statusCode int, mensaje string, objeto interface{}) Response {
	return Response{
		Mensaje: mensaje,
		Objeto:  objeto,
		Status:  statusCode,
	}
}

// Error returns an envelope without payload
func Error(statusCode int, mensaje string) Response {
	return Response{
		Mensaje: mensaje,
		Objeto:  nil,
		Status:  statusCode,
	}
}

// ValidationError carries field-level messages in objeto
func ValidationError(statusCode int, mensaje string, fields map[string][]string) Response {
	return Response{
		Mensaje: mensaje,
		Objeto:  fields,
		Status:  statusCode,
	}
}
