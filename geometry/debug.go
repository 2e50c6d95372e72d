package geometry

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteDebugJSON 将几何结果输出为 JSON，便于调试或与其它渲染器的输出对比。
func WriteDebugJSON(v any, path string) error {
	if v == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
