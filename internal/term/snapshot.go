package term

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ExportSnapshot persists the rendered screen to a timestamped log file under
// dir and returns the file path. This is a user-triggered side feature of the
// virtual terminal buffer, not part of the matching pipeline.
func ExportSnapshot(s Screen, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	cols, rows := s.Size()
	name := fmt.Sprintf("snapshot-%s.txt", uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	header := fmt.Sprintf("# vibepilot snapshot %s (%dx%d)\n", time.Now().Format(time.RFC3339), cols, rows)
	content := header + s.Render() + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
