package api

const (
	GenerateMockDataPath string = "/generate-mock-data"
	GetDataPath          string = "/get-data"
	FetchDataPath        string = "/fetch-data"

	StartParam string = "start"
	EndParam   string = "end"

	StartParamDefault int64 = 0
	EndParamDefault   int64 = 100

	// RequestIDHeader carries the id used in server logs for the request
	RequestIDHeader string = "X-Request-ID"
	// UnresolvedLinesHeader carries the number of lines served as empty placeholders
	UnresolvedLinesHeader string = "X-Unresolved-Lines"
	// PopulationErrorHeader carries the message of a failed cache population pass
	PopulationErrorHeader string = "X-Population-Error"

	InvalidRangeMessage  string = "Invalid range: 'end' should be greater than or equal to 'start' and both should be non-negative."
	OutOfBoundsMessage   string = "Start index is out of bounds."
	RangeTooLargeMessage string = "Range is too large: request fewer lines at once."
)

// MessageResponse is a JSON body of successful non-streaming responses
type MessageResponse struct {
	Message string `json:"message"`
	Size    int64  `json:"size"`
}

// ErrorResponse is a JSON body of failed responses
type ErrorResponse struct {
	Error string `json:"error"`
}
