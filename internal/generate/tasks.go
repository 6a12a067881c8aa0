package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
	"github.com/jmylchreest/btg/internal/palette"
	"github.com/jmylchreest/btg/internal/remap"
	"github.com/jmylchreest/btg/internal/template"
)

// RunTasks runs every legacy task file under templatesDir, writing one texture
// per task to <OutputDir>/<output_id>.png. Schema templates are skipped.
func (g *Generator) RunTasks(ctx context.Context, templatesDir string) ([]string, error) {
	files, err := FindTemplateFiles(templatesDir)
	if err != nil {
		return nil, err
	}

	var outputs []string
	for _, file := range files {
		data, err := os.ReadFile(file) // #nosec G304 - template discovered under the user's templates directory
		if err != nil {
			return outputs, fmt.Errorf("failed to read template file: %w", err)
		}
		if template.IsSchemaTemplate(bytes.TrimSpace(data)) {
			g.logger.Debug("skipping schema template", "file", file)
			continue
		}

		tasks, err := template.ParseLegacyTasks(data, file)
		if err != nil {
			return outputs, err
		}
		for i := range tasks {
			if err := ctx.Err(); err != nil {
				return outputs, err
			}
			out, err := g.RunTask(&tasks[i])
			if err != nil {
				return outputs, err
			}
			outputs = append(outputs, out)
		}
	}

	g.logger.Info("tasks complete", "files", len(outputs), "dry_run", g.options.DryRun)
	return outputs, nil
}

// RunTask applies the exact swaps of one legacy task to its base texture.
func (g *Generator) RunTask(task *template.Task) (string, error) {
	swaps := make([]remap.Swap, 0, len(task.Swaps))
	for _, s := range task.Swaps {
		src, err := g.defaultColours(s.SrcPalette, s.SrcID)
		if err != nil {
			return "", fmt.Errorf("task %q: %w", task.OutputID, err)
		}
		dst, err := g.defaultColours(s.DstPalette, s.DstID)
		if err != nil {
			return "", fmt.Errorf("task %q: %w", task.OutputID, err)
		}
		swaps = append(swaps, remap.Swap{Src: src, Dst: dst})
	}

	img, err := imgutil.Load(task.TexturePath())
	if err != nil {
		return "", fmt.Errorf("task %q: %w", task.OutputID, err)
	}
	out, err := remap.ApplyExactSwaps(img, swaps)
	if err != nil {
		return "", fmt.Errorf("task %q: %w", task.OutputID, err)
	}

	output := filepath.Join(g.options.OutputDir, task.OutputID+".png")
	if g.options.DryRun {
		g.logger.Info("would write", "task", task.OutputID, "output", output, "dry_run", true)
		return output, nil
	}
	if err := imgutil.SavePNG(output, out); err != nil {
		return "", err
	}
	g.logger.Info("wrote", "task", task.OutputID, "name", task.DisplayName, "output", output)
	return output, nil
}

func (g *Generator) defaultColours(file, id string) ([]colour.RGBA, error) {
	item, err := palette.FindItem(g.palettesDir, file, id)
	if err != nil {
		return nil, err
	}
	_, group := item.DefaultGroup()
	if group == nil {
		return nil, fmt.Errorf("%w: item %q has no groups", remap.ErrEmptyPalette, id)
	}
	return group.Colors, nil
}
