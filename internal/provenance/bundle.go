package provenance

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/cache"
)

// BundleName is the default archive file name under renders/.
const BundleName = "provenance_bundle.zip"

// CollectSidecars gathers every asset sidecar under assetsDir, keyed by file
// name. Unreadable sidecars are skipped: the bundle records what exists, it
// does not fail the build over a corrupt json.
func CollectSidecars(assetsDir string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	filepath.WalkDir(assetsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || !json.Valid(data) {
			return nil
		}
		out[d.Name()] = json.RawMessage(data)
		return nil
	})
	return out
}

func readJSONFile(path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil || !json.Valid(data) {
		return nil
	}
	return json.RawMessage(data)
}

func readJSONL(path string) []json.RawMessage {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var entries []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && json.Valid([]byte(line)) {
			entries = append(entries, json.RawMessage(line))
		}
	}
	return entries
}

// CreateBundle archives everything needed to audit one build: manifest,
// source yaml, logs, sidecars and render checksums, plus a QR code of the
// manifest hash for quick pairing with physical review notes.
func CreateBundle(episodeYAML, outputPath string) (string, error) {
	episodeDir := filepath.Dir(episodeYAML)
	logsDir := assets.LogsDir(episodeDir)
	assetsDir := assets.Dir(episodeDir)
	rendersDir := assets.RendersDir(episodeDir)

	if err := os.MkdirAll(rendersDir, 0755); err != nil {
		return "", err
	}
	if outputPath == "" {
		outputPath = filepath.Join(rendersDir, BundleName)
	}

	episodeContent, err := os.ReadFile(episodeYAML)
	if err != nil {
		return "", fmt.Errorf("episode.yaml: %w", err)
	}
	shotlistContent, _ := os.ReadFile(filepath.Join(episodeDir, "shotlist.yaml"))

	sidecars := CollectSidecars(assetsDir)
	planJSON := readJSONFile(filepath.Join(logsDir, "plan.json"))
	timelineJSON := readJSONFile(filepath.Join(logsDir, "timeline.json"))
	genRuns := readJSONL(filepath.Join(logsDir, "gen.jsonl"))
	qcReport := readJSONFile(filepath.Join(logsDir, "qc_report.json"))

	checksums := make(map[string]string)
	videos, _ := filepath.Glob(filepath.Join(rendersDir, "*.mp4"))
	for _, path := range videos {
		sum, err := cache.FileSHA256(path)
		if err != nil {
			return "", fmt.Errorf("checksum %s: %w", path, err)
		}
		checksums[filepath.Base(path)] = sum
	}

	files := []string{"manifest.json", "episode.yaml"}
	if shotlistContent != nil {
		files = append(files, "shotlist.yaml")
	}
	if planJSON != nil {
		files = append(files, "logs/plan.json")
	}
	if timelineJSON != nil {
		files = append(files, "logs/timeline.json")
	}
	if len(genRuns) > 0 {
		files = append(files, "logs/gen.jsonl")
	}
	if qcReport != nil {
		files = append(files, "logs/qc_report.json")
	}
	sidecarNames := make([]string, 0, len(sidecars))
	for name := range sidecars {
		sidecarNames = append(sidecarNames, name)
		files = append(files, "sidecars/"+name)
	}
	sort.Strings(sidecarNames)
	sort.Strings(files)

	manifest := NewManifest(filepath.Base(episodeDir), files, checksums, outputPath)
	manifestJSON, err := manifest.JSON()
	if err != nil {
		return "", err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return "", err
	}
	zw := zip.NewWriter(out)

	write := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if err := write("manifest.json", manifestJSON); err != nil {
		return "", closeBoth(zw, out, err)
	}
	if err := write("episode.yaml", episodeContent); err != nil {
		return "", closeBoth(zw, out, err)
	}
	if shotlistContent != nil {
		if err := write("shotlist.yaml", shotlistContent); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}
	if planJSON != nil {
		if err := write("logs/plan.json", planJSON); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}
	if timelineJSON != nil {
		if err := write("logs/timeline.json", timelineJSON); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}
	if len(genRuns) > 0 {
		var b strings.Builder
		for _, entry := range genRuns {
			b.Write(entry)
			b.WriteByte('\n')
		}
		if err := write("logs/gen.jsonl", []byte(b.String())); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}
	if qcReport != nil {
		if err := write("logs/qc_report.json", qcReport); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}
	for _, name := range sidecarNames {
		if err := write("sidecars/"+name, sidecars[name]); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}

	checksumsJSON, err := json.MarshalIndent(checksums, "", "  ")
	if err != nil {
		return "", closeBoth(zw, out, err)
	}
	if err := write("checksums.json", checksumsJSON); err != nil {
		return "", closeBoth(zw, out, err)
	}

	manifestHash := cache.SHA256Text(string(manifestJSON))
	qrPNG, err := qrcode.Encode("showrunner:"+manifest.EpisodeID+":"+manifestHash[:16], qrcode.Medium, 256)
	if err == nil {
		if err := write("manifest_qr.png", qrPNG); err != nil {
			return "", closeBoth(zw, out, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return outputPath, nil
}

func closeBoth(zw *zip.Writer, out io.Closer, err error) error {
	zw.Close()
	out.Close()
	return err
}
