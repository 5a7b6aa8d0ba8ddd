// Package prompttest drives prompts from a script in tests.
package prompttest

import "adminctl/internal/prompt"

// Scripted answers prompts from a fixed list and records every label it was
// asked. It returns prompt.ErrClosed once the answers run out.
type Scripted struct {
	Answers []string
	Asked   []string
}

func (s *Scripted) Ask(label string) (string, error) {
	s.Asked = append(s.Asked, label)
	if len(s.Answers) == 0 {
		return "", prompt.ErrClosed
	}
	next := s.Answers[0]
	s.Answers = s.Answers[1:]
	return next, nil
}

func (s *Scripted) Secret(label string) (string, error) {
	return s.Ask(label)
}
