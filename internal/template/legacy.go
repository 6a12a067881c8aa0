package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/btg/internal/util"
)

// TaskSwap is one palette substitution of a legacy task.
type TaskSwap struct {
	SrcPalette string `json:"src_palette"`
	SrcID      string `json:"src_id"`
	DstPalette string `json:"dst_palette"`
	DstID      string `json:"dst_id"`
}

// Task is a legacy single-output recolouring job.
type Task struct {
	Kind        string
	BaseTexture string
	OutputID    string
	DisplayName string
	Swaps       []TaskSwap
	// File is the template file the task was read from.
	File string
}

// TexturePath resolves BaseTexture against the directory of the task file.
func (t *Task) TexturePath() string {
	if filepath.IsAbs(t.BaseTexture) {
		return t.BaseTexture
	}
	return filepath.Join(filepath.Dir(t.File), t.BaseTexture)
}

type legacyTask struct {
	Kind        string            `json:"kind"`
	BaseTexture string            `json:"base_texture"`
	Texture     string            `json:"texture"`
	OutputID    string            `json:"output_id"`
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Name        string            `json:"name"`
	Swaps       []json.RawMessage `json:"swaps"`
}

// ParseLegacyTasksFile reads a legacy task template file.
func ParseLegacyTasksFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path) // #nosec G304 - template path supplied by the user, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseLegacyTasks(data, path)
}

// ParseLegacyTasks parses the older task format: either {"tasks":[...]} or a
// single task object. Schema-driven templates are rejected.
func ParseLegacyTasks(data []byte, path string) ([]Task, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: legacy template must be a JSON object: %w", path, err)
	}
	if IsSchemaTemplate(data) {
		return nil, fmt.Errorf("%s: schema-driven template, use generate", path)
	}

	if tasksRaw, ok := raw["tasks"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(tasksRaw, &entries); err == nil {
			tasks := make([]Task, 0, len(entries))
			for _, e := range entries {
				if !isObject(e) {
					continue
				}
				t, err := parseTask(e, path)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, t)
			}
			return tasks, nil
		}
	}

	t, err := parseTask(data, path)
	if err != nil {
		return nil, err
	}
	return []Task{t}, nil
}

func parseTask(data []byte, path string) (Task, error) {
	var lt legacyTask
	if err := json.Unmarshal(data, &lt); err != nil {
		return Task{}, fmt.Errorf("%s: invalid legacy task: %w", path, err)
	}

	t := Task{
		Kind:        firstNonEmpty(lt.Kind, "item"),
		BaseTexture: firstNonEmpty(lt.BaseTexture, lt.Texture),
		File:        path,
	}
	if t.BaseTexture == "" {
		return Task{}, fmt.Errorf("%s: missing base_texture", path)
	}

	stem := filepath.Base(t.BaseTexture)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	t.OutputID = firstNonEmpty(lt.OutputID, lt.ID, stem)
	t.DisplayName = firstNonEmpty(lt.DisplayName, lt.Name, util.TitleFromID(t.OutputID))

	for _, s := range lt.Swaps {
		if !isObject(s) {
			return Task{}, fmt.Errorf("%s: swap entries must be objects", path)
		}
		var swap TaskSwap
		if err := json.Unmarshal(s, &swap); err != nil {
			return Task{}, fmt.Errorf("%s: invalid swap: %w", path, err)
		}
		if swap.SrcPalette == "" || swap.SrcID == "" || swap.DstPalette == "" || swap.DstID == "" {
			return Task{}, fmt.Errorf("%s: swap requires src_palette, src_id, dst_palette and dst_id", path)
		}
		t.Swaps = append(t.Swaps, swap)
	}

	return t, nil
}

func isObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
