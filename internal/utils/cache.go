package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"routegen.busfleet.org/internal/report"
)

// CachedBundlePath is where a downloaded bundle for city from sourceURL is written.
func CachedBundlePath(cacheDir, city, sourceURL string) string {
	hash := sha1.Sum([]byte(sourceURL))
	return filepath.Join(cacheDir, fmt.Sprintf("%s%s.zip", cachePrefix(city), hex.EncodeToString(hash[:])))
}

func cachePrefix(city string) string {
	return fmt.Sprintf("city_%s_", CitySlug(city))
}

// GetLastCachedFile returns the most recently modified cached bundle for city.
func GetLastCachedFile(cacheDir, city string) (string, error) {
	files, err := os.ReadDir(cacheDir)
	if err != nil {
		return "", err
	}

	var lastModTime time.Time
	var lastModFile string

	prefix := cachePrefix(city)

	for _, file := range files {
		if !file.IsDir() && strings.HasPrefix(file.Name(), prefix) {
			fileInfo, err := file.Info()
			if err != nil {
				return "", err
			}
			if fileInfo.ModTime().After(lastModTime) {
				lastModTime = fileInfo.ModTime()
				lastModFile = file.Name()
			}
		}
	}

	if lastModFile == "" {
		return "", fmt.Errorf("no cached files found for city %s", city)
	}

	return filepath.Join(cacheDir, lastModFile), nil
}

// CreateCacheDirectory ensures the cache directory exists, creating it if necessary.
func CreateCacheDirectory(cacheDir string, logger *slog.Logger) error {
	stat, err := os.Stat(cacheDir)

	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(cacheDir, os.ModePerm); err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Level: sentry.LevelError,
					ExtraContext: map[string]interface{}{
						"cache_dir": cacheDir,
					},
				})
				return err
			}
			logger.Info("Created cache directory", "cache_dir", cacheDir)
			return nil
		}
		return err
	}
	if !stat.IsDir() {
		err := fmt.Errorf("%s is not a directory", cacheDir)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Level: sentry.LevelError,
			ExtraContext: map[string]interface{}{
				"cache_dir": cacheDir,
			},
		})
		return err
	}
	return nil
}
