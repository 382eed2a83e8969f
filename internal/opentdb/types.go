package opentdb

// Response codes used by the OpenTDB API.
const (
	codeSuccess        = 0
	codeNoResults      = 1
	codeInvalidParam   = 2
	codeTokenNotFound  = 3
	codeTokenExhausted = 4
)

type TriviaQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type questionsResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []TriviaQuestion `json:"results"`
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}
