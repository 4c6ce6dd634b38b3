package agent

// Status is the self-reported outcome of one agent turn. The model is
// instructed to emit exactly one of these values in its structured
// response.
type Status string

const (
	// StatusInputRequired means the user must supply more information
	// before the request can be served.
	StatusInputRequired Status = "input_required"
	// StatusCompleted means the request was fully answered.
	StatusCompleted Status = "completed"
	// StatusError means the model failed while processing the request.
	StatusError Status = "error"
)

// FallbackMessage is surfaced when the model's final output cannot be
// understood.
const FallbackMessage = "We are unable to process your request at the moment. Please try again."

// ResponseFormat is the structured final answer the model is required
// to produce.
type ResponseFormat struct {
	Status  Status `json:"status" yaml:"status" validate:"required,oneof=input_required completed error"`
	Message string `json:"message" yaml:"message" validate:"required"`
}

// GetContent implements chatmodel.ContentProvider.
func (r *ResponseFormat) GetContent() string {
	return r.Message
}

// Event is one streamed update for a request. Intermediate events carry
// progress text; the final event has TaskComplete or RequireUserInput
// set.
type Event struct {
	TaskComplete     bool   `json:"is_task_complete"`
	RequireUserInput bool   `json:"require_user_input"`
	Content          string `json:"content"`
}

// Terminal reports whether the event ends the stream for this request.
func (e Event) Terminal() bool {
	return e.TaskComplete || e.RequireUserInput
}

// Classify maps the model's structured answer onto the terminal event
// for the caller. A completed status finishes the task; input_required
// and error both hand the turn back to the user. Anything else falls
// back to a generic retry message.
func Classify(r *ResponseFormat) Event {
	if r == nil {
		return Event{
			RequireUserInput: true,
			Content:          FallbackMessage,
		}
	}
	switch r.Status {
	case StatusCompleted:
		return Event{
			TaskComplete: true,
			Content:      r.Message,
		}
	case StatusInputRequired, StatusError:
		return Event{
			RequireUserInput: true,
			Content:          r.Message,
		}
	default:
		return Event{
			RequireUserInput: true,
			Content:          FallbackMessage,
		}
	}
}
