package generate

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/btg/internal/colour"
	imgutil "github.com/jmylchreest/btg/internal/image"
	"github.com/jmylchreest/btg/internal/parallel"
	"github.com/jmylchreest/btg/internal/remap"
	"github.com/jmylchreest/btg/internal/template"
)

// Result reports what one template produced.
type Result struct {
	Template string
	// Outputs lists written (or, in dry-run mode, planned) files in iteration order.
	Outputs []string
}

// job is one combination ready to render.
type job struct {
	ids    []string
	output string
	mapped [][]colour.RGBA
	done   bool
}

// Run renders every combination of plan. Filenames and colour mappings are
// resolved for all combinations before any pixel work starts, so a bad pattern
// or empty palette fails the template before anything is written. The first
// render or write failure stops the batch: no further combinations are started.
// Cancelling ctx stops between combinations; files already written are complete.
func (g *Generator) Run(ctx context.Context, plan *Plan) (*Result, error) {
	def := plan.Def
	combos := plan.Combinations(g.options.Limit)

	jobs := make([]*job, 0, len(combos))
	for _, ids := range combos {
		j, err := g.resolve(plan, ids)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	pool := parallel.Start(ctx, g.workers())
	for _, j := range jobs {
		ok := pool.Go(func(context.Context) error {
			if err := g.render(plan, j); err != nil {
				return fmt.Errorf("template %q: %w", def.ID, err)
			}
			j.done = true
			return nil
		})
		if !ok {
			break
		}
	}
	err := pool.Wait()

	// Report the completed prefix in iteration order.
	res := &Result{Template: def.ID}
	for _, j := range jobs {
		if !j.done {
			break
		}
		if g.options.DryRun {
			g.logger.Info("would write", "template", def.ID, "output", j.output, "dry_run", true)
		} else {
			g.logger.Info("wrote", "template", def.ID, "output", j.output)
		}
		res.Outputs = append(res.Outputs, j.output)
	}
	return res, err
}

func (g *Generator) workers() int {
	if g.options.Workers < 1 {
		return 1
	}
	return g.options.Workers
}

// resolve names the output file and builds one source to destination mapping per slot.
func (g *Generator) resolve(plan *Plan, ids []string) (*job, error) {
	def := plan.Def
	values := make(map[string]string, len(ids))
	for i, id := range ids {
		values[def.Slots[i].Name] = id
	}

	filename, err := template.FormatPattern(def.Pattern, values)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", def.ID, err)
	}

	j := &job{
		ids:    ids,
		output: filepath.Join(g.options.OutputDir, filename),
		mapped: make([][]colour.RGBA, len(ids)),
	}
	for i, id := range ids {
		slot := def.Slots[i]
		ref, ok := g.index.Lookup(slot.Material, id)
		if !ok {
			return nil, fmt.Errorf("template %q slot %q: %q not in index", def.ID, slot.Name, id)
		}
		_, dst := ref.Item.DefaultGroup()
		if dst == nil {
			return nil, fmt.Errorf("template %q slot %q: item %q has no groups", def.ID, slot.Name, id)
		}
		mapped, err := remap.MapIndices(plan.Sources[i], dst.Colors)
		if err != nil {
			return nil, fmt.Errorf("template %q slot %q -> %q: %w", def.ID, slot.Name, id, err)
		}
		j.mapped[i] = mapped
	}
	return j, nil
}

func (g *Generator) render(plan *Plan, j *job) error {
	out := remap.Apply(plan.Image, plan.Classification, j.mapped, g.options.PreserveAlpha)
	if g.options.DryRun {
		return nil
	}
	return imgutil.SavePNG(j.output, out)
}

// Summary totals a GenerateAll run.
type Summary struct {
	Results []*Result
	Skipped []string
}

// Total returns the number of outputs across all templates.
func (s *Summary) Total() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Outputs)
	}
	return n
}

// GenerateAll runs every schema-driven template under templatesDir, in sorted
// path order. Files that are not schema templates (for example legacy task
// files) are skipped; any error from a schema template stops the run.
func (g *Generator) GenerateAll(ctx context.Context, templatesDir string) (*Summary, error) {
	files, err := FindTemplateFiles(templatesDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if len(files) == 0 {
		g.logger.Warn("no templates found", "dir", templatesDir)
		return summary, nil
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		data, err := os.ReadFile(file) // #nosec G304 - template discovered under the user's templates directory
		if err != nil {
			return summary, fmt.Errorf("failed to read template file: %w", err)
		}
		if !template.IsSchemaTemplate(bytes.TrimSpace(data)) {
			g.logger.Debug("skipping non-schema template", "file", file)
			summary.Skipped = append(summary.Skipped, file)
			continue
		}

		def, err := template.Parse(data, file)
		if err != nil {
			return summary, err
		}
		plan, err := g.Prepare(def)
		if err != nil {
			return summary, err
		}
		res, err := g.Run(ctx, plan)
		if res != nil {
			summary.Results = append(summary.Results, res)
		}
		if err != nil {
			return summary, err
		}
	}

	g.logger.Info("generate complete", "templates", len(summary.Results), "files", summary.Total(), "dry_run", g.options.DryRun)
	return summary, nil
}

// FindTemplateFiles returns every template file under dir in sorted order.
func FindTemplateFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), template.FileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates directory: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
