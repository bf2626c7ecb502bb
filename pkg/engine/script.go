package engine

import (
	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/isoform/pkg/contour"
	"github.com/chazu/isoform/pkg/isosurface"
	"github.com/chazu/isoform/pkg/mesh"
	"github.com/chazu/isoform/pkg/metaball"
)

// SurfaceJob is one declared 3D extraction: a metaball field, the
// isovalue band to surface, and the sampling grid to march.
type SurfaceJob struct {
	Name   string
	Spec   metaball.Spec
	Iso    isosurface.Isovalue
	Bounds sdf.Box3
	Opts   isosurface.Options
}

// Extract runs the job and returns its triangle mesh.
func (j *SurfaceJob) Extract() ([]mesh.Triangle, error) {
	return isosurface.Metaballs(j.Spec, j.Iso, j.Bounds, &j.Opts)
}

// ContourJob is one declared planar extraction.
type ContourJob struct {
	Name   string
	Spec   metaball.Spec2
	Iso    contour.Isovalue
	Bounds sdf.Box2
	Opts   contour.Options
}

// Extract runs the job and returns its contour paths.
func (j *ContourJob) Extract() ([]contour.Path, error) {
	return contour.Metaballs2D(j.Spec, j.Iso, j.Bounds, &j.Opts)
}

// Script is the product of one evaluation: every extraction job the
// source declared, in declaration order. Declaring jobs is cheap; no
// field is sampled until Extract is called on a job.
type Script struct {
	Surfaces []SurfaceJob
	Contours []ContourJob
}

// NewScript returns an empty script.
func NewScript() *Script {
	return &Script{}
}

// JobCount returns the total number of declared extraction jobs.
func (s *Script) JobCount() int {
	return len(s.Surfaces) + len(s.Contours)
}

// Surface returns the named surface job, or nil if none exists.
func (s *Script) Surface(name string) *SurfaceJob {
	for i := range s.Surfaces {
		if s.Surfaces[i].Name == name {
			return &s.Surfaces[i]
		}
	}
	return nil
}

// Contour returns the named contour job, or nil if none exists.
func (s *Script) Contour(name string) *ContourJob {
	for i := range s.Contours {
		if s.Contours[i].Name == name {
			return &s.Contours[i]
		}
	}
	return nil
}
