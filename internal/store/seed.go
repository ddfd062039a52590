package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML layout of a catalogue file:
//
//	groups:
//	  - name: Поступление
//	    questions:
//	      - question: Какие нужны документы?
//	        answer: |
//	          Паспорт и аттестат.
//	        pictures: [documents.png]
type Seed struct {
	Groups []SeedGroup `yaml:"groups"`
}

type SeedGroup struct {
	Name      string         `yaml:"name"`
	Questions []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Pictures []string `yaml:"pictures,omitempty"`
}

func ParseSeed(b []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "parse seed")
	}
	seen := make(map[string]struct{})
	for _, e := range s.Entries() {
		if err := validate(e); err != nil {
			return nil, errors.Wrapf(err, "group %q", e.Group)
		}
		if _, dup := seen[e.Question]; dup {
			return nil, errors.Errorf("duplicate question %q", e.Question)
		}
		seen[e.Question] = struct{}{}
	}
	return &s, nil
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed")
	}
	s, err := ParseSeed(b)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}

// WriteSeedFile writes s to path through a temporary file so readers never
// see a partial file.
func WriteSeedFile(path string, s *Seed) error {
	if s == nil {
		return errors.New("nil seed")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create seed dir")
		}
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal seed")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write seed")
	}
	return errors.Wrap(os.Rename(tmp, path), "write seed")
}

// Entries flattens the seed in file order.
func (s *Seed) Entries() []Entry {
	var out []Entry
	for _, g := range s.Groups {
		for _, q := range g.Questions {
			out = append(out, Entry{
				Group:    g.Name,
				Question: q.Question,
				Answer:   q.Answer,
				Pictures: append([]string{}, q.Pictures...),
			})
		}
	}
	return out
}

// Apply upserts every seed entry into c and returns how many were written.
func Apply(ctx context.Context, c Catalog, s *Seed) (int, error) {
	n := 0
	for _, e := range s.Entries() {
		if err := c.Upsert(ctx, e); err != nil {
			return n, errors.Wrapf(err, "upsert %q", e.Question)
		}
		n++
	}
	return n, nil
}

// Export reads the whole catalogue back into seed form, grouping questions
// by the order in which their group first appears.
func Export(ctx context.Context, c Catalog) (*Seed, error) {
	questions, err := c.Questions(ctx)
	if err != nil {
		return nil, err
	}
	s := &Seed{}
	index := make(map[string]int)
	for _, q := range questions {
		e, err := c.Answer(ctx, q)
		if err != nil {
			return nil, err
		}
		i, ok := index[e.Group]
		if !ok {
			i = len(s.Groups)
			index[e.Group] = i
			s.Groups = append(s.Groups, SeedGroup{Name: e.Group})
		}
		s.Groups[i].Questions = append(s.Groups[i].Questions, SeedQuestion{
			Question: e.Question,
			Answer:   e.Answer,
			Pictures: e.Pictures,
		})
	}
	return s, nil
}
