package game

import (
	"encoding/json"
	"math/rand"
	"os"

	"github.com/pkg/errors"
)

// Pool holds the prompt cards for one language and tracks which ids were
// already used so consecutive rounds don't repeat topics. Not safe for
// concurrent use on its own; the Game's lock covers it.
type Pool struct {
	prompts []Prompt
	used    map[int]bool
}

func NewPool(prompts []Prompt) *Pool {
	return &Pool{prompts: prompts, used: make(map[int]bool)}
}

// LoadPool reads a {"prompts": [...]} JSON file.
func LoadPool(path string) (*Pool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read prompts file %s", path)
	}
	var doc struct {
		Prompts []Prompt `json:"prompts"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode prompts file %s", path)
	}
	if len(doc.Prompts) == 0 {
		return nil, errors.Errorf("prompts file %s contains no prompts", path)
	}
	return NewPool(doc.Prompts), nil
}

func (p *Pool) Len() int { return len(p.prompts) }

// Pick returns one random prompt, avoiding ids used this epoch. When every
// prompt has been used the epoch resets and the full pool is eligible again.
func (p *Pool) Pick() Prompt {
	available := make([]Prompt, 0, len(p.prompts))
	for _, pr := range p.prompts {
		if !p.used[pr.ID] {
			available = append(available, pr)
		}
	}
	if len(available) == 0 {
		p.used = make(map[int]bool)
		available = p.prompts
	}
	choice := available[rand.Intn(len(available))]
	p.used[choice.ID] = true
	return choice
}
