// Package chains holds the static registry of supported blockchain
// networks and the native-symbol table derived from it.
package chains

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
)

type Chain struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NativeSymbol string `json:"native_symbol,omitempty"`
}

type Registry struct {
	chains         []Chain
	ids            []string
	nativeBySymbol map[string]string // lowercased native symbol → chain id
}

func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains config: %w", err)
	}
	var list []Chain
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse chains config: %w", err)
	}
	return New(list), nil
}

func New(list []Chain) *Registry {
	r := &Registry{
		chains:         list,
		nativeBySymbol: make(map[string]string, len(list)),
	}
	for _, c := range list {
		r.ids = append(r.ids, c.ID)
		if c.NativeSymbol != "" {
			r.nativeBySymbol[strings.ToLower(c.NativeSymbol)] = c.ID
		}
	}
	return r
}

// NativeChain reports the chain whose base asset has the given symbol.
func (r *Registry) NativeChain(symbol string) (string, bool) {
	id, ok := r.nativeBySymbol[strings.ToLower(symbol)]
	return id, ok
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

func (r *Registry) Known(id string) bool {
	for _, known := range r.ids {
		if known == id {
			return true
		}
	}
	return false
}

// Suggest returns up to n chain IDs fuzzy-matched against input, best first.
func (r *Registry) Suggest(input string, n int) []string {
	if n <= 0 {
		return nil
	}
	matches := fuzzy.Find(strings.ToLower(input), r.ids)
	out := make([]string, 0, n)
	for i := 0; i < len(matches) && i < n; i++ {
		out = append(out, r.ids[matches[i].Index])
	}
	return out
}
