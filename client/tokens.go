package client

import (
	"github.com/charmbracelet/log"
	"github.com/pkoukk/tiktoken-go"
)

// NewTokenCounter returns a function counting the tokens of a single user
// message for model. When no encoding can be loaded the counter returns 0
// and the token limiter is effectively bypassed.
func NewTokenCounter(model string, logger *log.Logger) func(string) int {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		logger.Warn("Token counting disabled", "error", err, "model", model)
		return func(string) int { return 0 }
	}

	return func(text string) int {
		// 4 tokens of message framing plus 2 priming the reply.
		return len(encoding.Encode(text, nil, nil)) + 6
	}
}
