package generation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

// scriptedGenerator answers by matching a marker in the prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	answers map[string][]string
	errs    map[string]error
	calls   map[string]int
	tokens  int
}

func newScripted() *scriptedGenerator {
	return &scriptedGenerator{answers: map[string][]string{}, errs: map[string]error{}, calls: map[string]int{}, tokens: 100}
}

func (s *scriptedGenerator) on(marker string, answers ...string) *scriptedGenerator {
	s.answers[marker] = answers
	return s
}

func (s *scriptedGenerator) fail(marker string, err error) *scriptedGenerator {
	s.errs[marker] = err
	return s
}

func (s *scriptedGenerator) count(marker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[marker]
}

func (s *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for marker, err := range s.errs {
		if strings.Contains(req.Prompt, marker) {
			s.calls[marker]++
			return nil, err
		}
	}
	for marker, answers := range s.answers {
		if !strings.Contains(req.Prompt, marker) {
			continue
		}
		n := s.calls[marker]
		s.calls[marker]++
		if n >= len(answers) {
			n = len(answers) - 1
		}
		return &llm.Response{Text: answers[n], Model: "gpt-4-turbo", Provider: llm.ProviderOpenAI, TokensUsed: s.tokens}, nil
	}
	return nil, &llm.ProviderError{Provider: "fake", StatusCode: 400, Err: errors.New("no scripted answer")}
}

const (
	intentMarker  = "Analyze this campaign brief"
	heroMarker    = "Generate the hero section"
	productMarker = "Enhance these product descriptions"
)
