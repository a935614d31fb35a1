package entities

// SAORI request methods
const (
	SaoriMethodExecute    = "EXECUTE"
	SaoriMethodGetVersion = "GET Version"
)

// SaoriProtocol is the only protocol version spoken by the plugin
const SaoriProtocol = "SAORI/1.0"

// SAORI response status codes
const (
	SaoriStatusOK                  = 200
	SaoriStatusNoContent           = 204
	SaoriStatusBadRequest          = 400
	SaoriStatusInternalServerError = 500
)

// SaoriRequest is a decoded host request
type SaoriRequest struct {
	Method        string
	Protocol      string
	Charset       string
	Sender        string
	SecurityLevel string
	Arguments     []string
	Headers       map[string]string // headers not mapped to a field above
}

// Argument returns the i-th argument, or "" when absent
func (r *SaoriRequest) Argument(i int) string {
	if i < 0 || i >= len(r.Arguments) {
		return ""
	}
	return r.Arguments[i]
}

// SaoriResponse is the plugin answer before wire encoding
type SaoriResponse struct {
	Status  int
	Result  string
	Values  []string
	Charset string
}

// SaoriStatusText returns the reason phrase for a status code
func SaoriStatusText(status int) string {
	switch status {
	case SaoriStatusOK:
		return "OK"
	case SaoriStatusNoContent:
		return "No Content"
	case SaoriStatusBadRequest:
		return "Bad Request"
	case SaoriStatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}
