package staticcatalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestProvider_CodesNormalizesAndDropsEmptyAmounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, CodesFile), `{"ub01":3," RF02 ":1,"UW03":0,"XB04":-2}`)

	codes, err := Provider{Root: root}.Codes(context.Background())
	if err != nil {
		t.Fatalf("codes: %v", err)
	}
	if len(codes) != 2 || codes["UB01"] != 3 || codes["RF02"] != 1 {
		t.Fatalf("unexpected catalog: %v", codes)
	}
}

func TestProvider_RadioMessages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, RadioFile), `[
		{"code":"CO1","title":"Depot","text":"Stay below","delay":3000,"single_use":true},
		{"code":"CO2","title":"Signal","audio":"./audio/co2.mp3","delay":500}
	]`)

	msgs, err := Provider{Root: root}.RadioMessages(context.Background())
	if err != nil {
		t.Fatalf("radio: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected two messages, got %d", len(msgs))
	}
	if msgs[0].Text != "Stay below" || msgs[0].Delay() != 3*time.Second || !msgs[0].SingleUse {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].AudioRef != "./audio/co2.mp3" || msgs[1].SingleUse {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
}

func TestProvider_MissingCatalog(t *testing.T) {
	_, err := Provider{Root: t.TempDir()}.Codes(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestProvider_AssetAndTraversal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "audio", "co2.mp3"), "ID3")

	p := Provider{Root: root}
	b, err := p.Asset(context.Background(), "./audio/co2.mp3")
	if err != nil {
		t.Fatalf("asset: %v", err)
	}
	if string(b) != "ID3" {
		t.Fatalf("unexpected asset content: %q", b)
	}

	parent := filepath.Dir(root)
	outsidePath := filepath.Join(parent, "outside.txt")
	writeFile(t, outsidePath, "secret")
	t.Cleanup(func() { _ = os.Remove(outsidePath) })

	for _, bad := range []string{"../outside.txt", "/etc/passwd", "", "."} {
		if _, err := p.Asset(context.Background(), bad); !errors.Is(err, ErrInvalidAssetPath) {
			t.Fatalf("%q: expected ErrInvalidAssetPath, got %v", bad, err)
		}
	}
}
