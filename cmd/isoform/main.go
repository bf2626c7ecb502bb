// Command isoform evaluates a metaball script and writes the extracted
// surfaces and contours as STL meshes and PNG images.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/chazu/isoform/pkg/draw"
	"github.com/chazu/isoform/pkg/engine"
	"github.com/chazu/isoform/pkg/mesh"
	"github.com/chazu/isoform/pkg/stl"
)

var (
	// Flags
	scriptPath = flag.String("script", "", "Script file to evaluate")
	stlOut     = flag.String("stl", "", "STL output file for surface jobs")
	pngOut     = flag.String("png", "", "PNG output file (shaded preview for surfaces, drawing for contours)")
	stats      = flag.Bool("stats", false, "Print sampling statistics to stderr")
	ratio      = flag.Float64("decimate", 0, "Decimation ratio in (0,1) applied to surface meshes")
	demo       = flag.Bool("demo", false, "Evaluate the built-in demo script")
)

// demoScript exercises blending, carving and planar extraction in one
// model. Evaluated when -demo is given.
const demoScript = `
;; Two blended lobes joined by a capsule, with a pocket carved out.
(surface
  (blend
    (sphere :radius 3 :at (vec3 4 0 0))
    (sphere :radius 3 :at (vec3 -4 0 0))
    (capsule :height 9 :radius 1.2 :rotate (vec3 0 90 0))
    (sphere :radius 1.5 :negative true :cutoff 4 :at (vec3 0 0 2)))
  :size 22
  :cell 0.25
  :name "blob")

;; The same pairing in the plane.
(contour
  (blend
    (circle :radius 3 :at (vec2 4 0))
    (circle :radius 3 :at (vec2 -4 0)))
  :size 22
  :pixel 0.1
  :name "slice")
`

func main() {
	flag.Parse()

	source := demoScript
	if *scriptPath != "" {
		buf, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("Unable to read script: %v", err)
		}
		source = string(buf)
	} else if !*demo {
		log.Fatal("Usage: isoform -script model.iso [-stl out.stl] [-png out.png]")
	}

	model, evalErrs, err := engine.NewEngine().Evaluate(source)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Printf("script error: %s", e.Error())
		}
		os.Exit(1)
	}
	if model.JobCount() == 0 {
		log.Fatal("Script declares no extraction jobs")
	}
	if *stlOut != "" && len(model.Surfaces) == 0 {
		log.Print("-stl ignored: script declares no surface jobs")
	}

	single := model.JobCount() == 1

	for i := range model.Surfaces {
		job := &model.Surfaces[i]
		if *stats {
			job.Opts.ShowStats = os.Stderr
		}

		s := new(spinner)
		s.start(fmt.Sprintf("Extracting %s...", job.Name))
		begin := time.Now()
		tris, err := job.Extract()
		s.stop()
		if err != nil {
			log.Fatalf("%s: %v", job.Name, err)
		}
		if *ratio > 0 {
			tris, err = mesh.Decimate(tris, *ratio)
			if err != nil {
				log.Fatalf("%s: %v", job.Name, err)
			}
		}
		fmt.Printf("%s: %d triangles in %.2fs\n", job.Name, len(tris), time.Since(begin).Seconds())

		if *stlOut != "" {
			out := outPath(*stlOut, job.Name, single)
			if err := stl.WriteFile(out, tris); err != nil {
				log.Fatalf("%s: %v", job.Name, err)
			}
			fmt.Printf("%s: saved %s\n", job.Name, filepath.Base(out))
		}
		if *pngOut != "" {
			out := outPath(*pngOut, job.Name, single)
			if err := draw.SavePreviewPNG(out, tris, nil); err != nil {
				log.Fatalf("%s: %v", job.Name, err)
			}
			fmt.Printf("%s: saved %s\n", job.Name, filepath.Base(out))
		}
	}

	for i := range model.Contours {
		job := &model.Contours[i]
		if *stats {
			job.Opts.ShowStats = os.Stderr
		}

		s := new(spinner)
		s.start(fmt.Sprintf("Extracting %s...", job.Name))
		begin := time.Now()
		paths, err := job.Extract()
		s.stop()
		if err != nil {
			log.Fatalf("%s: %v", job.Name, err)
		}
		fmt.Printf("%s: %d paths in %.2fs\n", job.Name, len(paths), time.Since(begin).Seconds())

		if *pngOut != "" {
			out := outPath(*pngOut, job.Name, single)
			style := &draw.PathStyle{Window: job.Bounds}
			if err := draw.SavePathsPNG(out, paths, style); err != nil {
				log.Fatalf("%s: %v", job.Name, err)
			}
			fmt.Printf("%s: saved %s\n", job.Name, filepath.Base(out))
		}
	}
}

// outPath derives the output path for one job. A single job writes to
// the given path unchanged; multiple jobs insert the job name before
// the extension.
func outPath(base, name string, single bool) string {
	if single {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + name + ext
}

// spinner is a progress indicator for interactive runs. Start is a
// no-op when stderr is not a terminal, so piped and logged output
// stays clean.
type spinner struct {
	stopChan chan struct{}
}

func (s *spinner) start(message string) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	s.stopChan = make(chan struct{}, 1)

	go func() {
		for {
			for _, r := range `-\|/` {
				select {
				case <-s.stopChan:
					return
				default:
					fmt.Fprintf(os.Stderr, "\r%s\x1b[92m %c\x1b[39m", message, r)
					time.Sleep(time.Millisecond * 100)
				}
			}
		}
	}()
}

func (s *spinner) stop() {
	if s.stopChan == nil {
		return
	}
	s.stopChan <- struct{}{}
	fmt.Fprint(os.Stderr, "\r\x1b[2K")
}
