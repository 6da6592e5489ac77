package staticcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"metroterminal/internal/domain/metro"
)

const (
	CodesFile = "codes-db.json"
	RadioFile = "radio-messages.json"
)

var ErrInvalidAssetPath = errors.New("invalid asset filepath")

// Provider reads the code and radio catalogs and the audio assets from a
// directory on disk.
type Provider struct {
	Root string
}

// Codes returns code → amount. Entries without a positive amount are
// dropped.
func (p Provider) Codes(_ context.Context) (map[string]int, error) {
	var raw map[string]int
	if err := p.readJSON(CodesFile, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for code, amount := range raw {
		code = metro.NormalizeInput(code)
		if code == "" || amount <= 0 {
			continue
		}
		out[code] = amount
	}
	return out, nil
}

func (p Provider) RadioMessages(_ context.Context) ([]metro.RadioMessage, error) {
	var msgs []metro.RadioMessage
	if err := p.readJSON(RadioFile, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (p Provider) Asset(_ context.Context, path string) ([]byte, error) {
	safePath, err := secureJoin(p.Root, path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(safePath)
}

func (p Provider) readJSON(name string, out any) error {
	b, err := os.ReadFile(filepath.Join(p.Root, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimPrefix(strings.TrimSpace(rel), "./")
	if rel == "" {
		return "", ErrInvalidAssetPath
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidAssetPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidAssetPath
	}
	return target, nil
}
