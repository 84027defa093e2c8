package fulfillment

import (
	"errors"
	"testing"

	storage_go "github.com/supabase-community/storage-go"
)

// fakeSigner signs every path unless it is listed as broken.
type fakeSigner struct {
	broken map[string]bool
}

func (f *fakeSigner) CreateSignedUrl(bucket, path string, expiresIn int) (storage_go.SignedUrlResponse, error) {
	if f.broken[path] {
		return storage_go.SignedUrlResponse{}, errors.New("object not found")
	}
	return storage_go.SignedUrlResponse{SignedURL: "https://cdn.test/" + bucket + "/" + path}, nil
}

func TestBeatLinks(t *testing.T) {
	assets := BeatAssets{
		MP3Path:   "beat1.mp3",
		WAVPath:   "beat1.wav",
		StemsPath: "beat1-stems.zip",
	}
	gen := NewGenerator(&fakeSigner{}, 0)

	cases := []struct {
		license string
		want    int
	}{
		{"basic", 1},
		{"pro", 2},
		{"unlimited", 3},
		{"exclusive", 3},
		{"PRO", 2},          // case-insensitive
		{" Exclusive ", 3},  // sloppy input
		{"unknown-tier", 1}, // unknown tiers get MP3 only
	}

	for _, tc := range cases {
		t.Run(tc.license, func(t *testing.T) {
			links := gen.BeatLinks(assets, tc.license)
			if len(links) != tc.want {
				t.Errorf("license %q: expected %d links, got %d", tc.license, tc.want, len(links))
			}
		})
	}

	t.Run("Ordering", func(t *testing.T) {
		links := gen.BeatLinks(assets, "exclusive")
		labels := []string{"MP3", "WAV", "Stems"}
		for i, l := range links {
			if l.Label != labels[i] {
				t.Errorf("position %d: expected %s, got %s", i, labels[i], l.Label)
			}
		}
	})
}

func TestBeatLinks_MissingAssets(t *testing.T) {
	gen := NewGenerator(&fakeSigner{}, 600)

	// No stems uploaded: an unlimited license still resolves MP3 and WAV.
	assets := BeatAssets{MP3Path: "b.mp3", WAVPath: "b.wav"}
	links := gen.BeatLinks(assets, "unlimited")
	if len(links) != 2 {
		t.Errorf("expected 2 links, got %d", len(links))
	}
}

func TestBeatLinks_SigningFailureIsSkipped(t *testing.T) {
	signer := &fakeSigner{broken: map[string]bool{"b.wav": true}}
	gen := NewGenerator(signer, 600)

	assets := BeatAssets{MP3Path: "b.mp3", WAVPath: "b.wav", StemsPath: "b.zip"}
	links := gen.BeatLinks(assets, "exclusive")

	// The broken WAV disappears, the rest survive.
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].Label != "MP3" || links[1].Label != "Stems" {
		t.Errorf("unexpected labels: %+v", links)
	}
}

func TestKitLink(t *testing.T) {
	gen := NewGenerator(&fakeSigner{}, 600)

	if link := gen.KitLink(""); link != nil {
		t.Errorf("expected nil for missing archive, got %+v", link)
	}

	link := gen.KitLink("kit1.zip")
	if link == nil || link.URL != "https://cdn.test/sound-kits/kit1.zip" {
		t.Errorf("unexpected kit link: %+v", link)
	}
}
