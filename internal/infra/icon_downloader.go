package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// IconDownloader handles downloading and caching asset icons
type IconDownloader struct {
	basePath string
	client   *http.Client
}

// NewIconDownloader creates a new IconDownloader
func NewIconDownloader() (*IconDownloader, error) {
	path, err := getAssetsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath: path,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for an asset if it doesn't exist
// Returns the local file path on success
// Images are resized to 24x24 pixels for consistent UI display
func (d *IconDownloader) DownloadIcon(asset string) (string, error) {
	// Security: Sanitize asset name to prevent path traversal
	safeAsset := sanitizeAsset(asset)
	if safeAsset == "" {
		return "", fmt.Errorf("invalid asset: %s", asset)
	}

	fileName := strings.ToLower(safeAsset) + ".png"
	filePath := filepath.Join(d.basePath, fileName)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	// Construct URL (Using CoinCap CDN)
	url := fmt.Sprintf("https://assets.coincap.io/assets/icons/%s@2x.png", strings.ToLower(safeAsset))

	resp, err := d.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	// Decode the image
	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize to 24x24 with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, 24, 24, imaging.Lanczos)

	// Save the resized image
	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// GetIconPath returns the local path for an asset's icon
func (d *IconDownloader) GetIconPath(asset string) string {
	return filepath.Join(d.basePath, strings.ToLower(asset)+".png")
}

func getAssetsPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "VelocityClient", "assets", "icons"), nil
}

func sanitizeAsset(asset string) string {
	res := make([]rune, 0, len(asset))
	for _, r := range asset {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			res = append(res, r)
		}
	}
	return string(res)
}
