// Package fulfillment decides which download links a buyer receives for a
// purchase and signs them against Supabase storage.
package fulfillment

import (
	"log"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// Storage bucket per asset class.
const (
	BucketMP3    = "beats-mp3"
	BucketWAV    = "beats-wav"
	BucketStems  = "beats-stems"
	BucketKits   = "sound-kits"
	BucketPhotos = "profile-photos"
)

// DefaultExpirySeconds is the signed URL lifetime when none is configured.
const DefaultExpirySeconds = 3600

// License tiers that unlock the lossless WAV, and the stricter subset that
// also unlocks multitrack stems.
var allowsWAV = map[string]bool{
	"pro":       true,
	"unlimited": true,
	"exclusive": true,
}

var allowsStems = map[string]bool{
	"unlimited": true,
	"exclusive": true,
}

// Signer is the slice of the Supabase storage client we need.
// *storage_go.Client satisfies it.
type Signer interface {
	CreateSignedUrl(bucketID string, filePath string, expiresIn int) (storage_go.SignedUrlResponse, error)
}

// Link is one downloadable asset handed to the buyer.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// BeatAssets are the stored object paths of a purchased beat. Empty paths
// mean the producer never uploaded that asset.
type BeatAssets struct {
	MP3Path   string
	WAVPath   string
	StemsPath string
}

type Generator struct {
	Signer        Signer
	ExpirySeconds int
}

func NewGenerator(signer Signer, expirySeconds int) *Generator {
	if expirySeconds <= 0 {
		expirySeconds = DefaultExpirySeconds
	}
	return &Generator{Signer: signer, ExpirySeconds: expirySeconds}
}

// BeatLinks returns the ordered download links a license tier grants:
// MP3 for everyone, WAV for the allows-WAV tiers, stems for the strictest
// tiers. A signing failure for one asset is logged and skipped so the rest
// of the purchase still resolves.
func (g *Generator) BeatLinks(assets BeatAssets, licenseType string) []Link {
	license := strings.ToLower(strings.TrimSpace(licenseType))

	links := make([]Link, 0, 3)
	g.appendLink(&links, "MP3", BucketMP3, assets.MP3Path)
	if allowsWAV[license] {
		g.appendLink(&links, "WAV", BucketWAV, assets.WAVPath)
	}
	if allowsStems[license] {
		g.appendLink(&links, "Stems", BucketStems, assets.StemsPath)
	}
	return links
}

// KitLink signs the archive of a purchased sound kit. Returns nil when the
// kit has no archive or signing fails.
func (g *Generator) KitLink(archivePath string) *Link {
	links := make([]Link, 0, 1)
	g.appendLink(&links, "Archive", BucketKits, archivePath)
	if len(links) == 0 {
		return nil
	}
	return &links[0]
}

func (g *Generator) appendLink(links *[]Link, label, bucket, path string) {
	if path == "" {
		return
	}
	resp, err := g.Signer.CreateSignedUrl(bucket, path, g.ExpirySeconds)
	if err != nil {
		log.Printf("Failed to sign %s/%s: %v", bucket, path, err)
		return
	}
	*links = append(*links, Link{Label: label, URL: resp.SignedURL})
}
