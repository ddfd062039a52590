package protocol

// Wire tags. These are part of the protocol: renaming one breaks every peer.
const (
	TagInputRequest     = "InputRequest"
	TagQuestionRequest  = "QuestionRequest"
	TagInputResponse    = "InputResponse"
	TagQuestionResponse = "QuestionResponse"
)

// Message is anything that travels over the wire. Type returns the wire tag,
// which is fixed by the concrete type and cannot be set independently.
type Message interface {
	Type() string
}

// Request is the closed set of client-to-server messages.
type Request interface {
	Message
	isRequest()
}

// Response is the closed set of server-to-client messages.
type Response interface {
	Message
	isResponse()
}

// InputRequest carries free text typed by the user.
type InputRequest struct {
	Input string `json:"input"`
}

// QuestionRequest asks for the answer to a question previously suggested by
// the server.
type QuestionRequest struct {
	Question string `json:"question"`
}

// InputResponse lists catalogue questions matching an InputRequest, best
// match first. It may be empty.
type InputResponse struct {
	Questions []string `json:"questions"`
}

// QuestionResponse answers a QuestionRequest. Answer is HTML produced by the
// server; Pictures are image URLs in display order.
type QuestionResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Pictures []string `json:"pictures"`
}

func (InputRequest) Type() string     { return TagInputRequest }
func (QuestionRequest) Type() string  { return TagQuestionRequest }
func (InputResponse) Type() string    { return TagInputResponse }
func (QuestionResponse) Type() string { return TagQuestionResponse }

func (InputRequest) isRequest()      {}
func (QuestionRequest) isRequest()   {}
func (InputResponse) isResponse()    {}
func (QuestionResponse) isResponse() {}
