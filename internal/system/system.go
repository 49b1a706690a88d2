package system

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatestEpisode returns the episode.yaml with the newest mtime under
// episodesDir, scanning one directory level (episodes/<id>/episode.yaml).
func FindLatestEpisode(episodesDir string) (string, error) {
	entries, err := os.ReadDir(episodesDir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(episodesDir, e.Name(), "episode.yaml")
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = candidate
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов episode.yaml", episodesDir)
	}

	return latestFile, nil
}
