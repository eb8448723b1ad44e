package editor

import "github.com/flowgrid/flowgrid/pkg/errors"

// Mode gates which interactions an editor session permits.
type Mode string

const (
	// ModeEdit permits every interaction.
	ModeEdit Mode = "edit"
	// ModeView is read-only: canvas pan works, nothing mutates.
	ModeView Mode = "view"
	// ModeFixed permits canvas pan and background selection changes but no
	// graph mutation.
	ModeFixed Mode = "fixed"
)

// Options is the recognized configuration surface of an editor session.
// Field names map 1:1 to the flowgrid.toml keys loaded by the CLI.
type Options struct {
	EditorMode Mode `toml:"editor_mode"`

	// Reroute enables waypoint editing on connections.
	Reroute bool `toml:"reroute"`
	// RerouteFixCurvature applies RerouteCurvature uniformly to every
	// segment of a rerouted path instead of giving the first and last
	// segments their own start/end curvature.
	RerouteFixCurvature bool    `toml:"reroute_fix_curvature"`
	RerouteWidth        float64 `toml:"reroute_width"`

	// Curvature controls plain connectors; the reroute variants control
	// segments of waypoint-bent connectors.
	Curvature                float64 `toml:"curvature"`
	RerouteCurvature         float64 `toml:"reroute_curvature"`
	RerouteCurvatureStartEnd float64 `toml:"reroute_curvature_start_end"`

	ZoomMin  float64 `toml:"zoom_min"`
	ZoomMax  float64 `toml:"zoom_max"`
	ZoomStep float64 `toml:"zoom_step"`

	// UseUUID switches node ids from a sequential counter to UUIDs.
	UseUUID bool `toml:"use_uuid"`
	// ForceFirstInput lets a drawn connection dropped anywhere on a node
	// land on that node's first input.
	ForceFirstInput bool `toml:"force_first_input"`
	// DraggableInputs keeps node dragging active when the pointer goes
	// down over interactive content inside the node body.
	DraggableInputs bool `toml:"draggable_inputs"`
}

// DefaultOptions returns the option set an editor starts with when a host
// configures nothing.
func DefaultOptions() Options {
	return Options{
		EditorMode:               ModeEdit,
		Reroute:                  false,
		RerouteFixCurvature:      false,
		RerouteWidth:             6,
		Curvature:                0.5,
		RerouteCurvature:         0.5,
		RerouteCurvatureStartEnd: 0.5,
		ZoomMin:                  0.5,
		ZoomMax:                  1.6,
		ZoomStep:                 0.1,
		DraggableInputs:          true,
	}
}

// Validate checks option consistency. Zero-valued numeric fields are filled
// from defaults first, so a TOML file only needs the keys it overrides.
func (o *Options) Validate() error {
	def := DefaultOptions()
	if o.EditorMode == "" {
		o.EditorMode = def.EditorMode
	}
	if o.Curvature == 0 {
		o.Curvature = def.Curvature
	}
	if o.RerouteCurvature == 0 {
		o.RerouteCurvature = def.RerouteCurvature
	}
	if o.RerouteCurvatureStartEnd == 0 {
		o.RerouteCurvatureStartEnd = def.RerouteCurvatureStartEnd
	}
	if o.RerouteWidth == 0 {
		o.RerouteWidth = def.RerouteWidth
	}
	if o.ZoomMin == 0 {
		o.ZoomMin = def.ZoomMin
	}
	if o.ZoomMax == 0 {
		o.ZoomMax = def.ZoomMax
	}
	if o.ZoomStep == 0 {
		o.ZoomStep = def.ZoomStep
	}

	switch o.EditorMode {
	case ModeEdit, ModeView, ModeFixed:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "editor_mode must be edit, view or fixed, got %q", o.EditorMode)
	}
	if o.ZoomMin <= 0 || o.ZoomMax <= 0 || o.ZoomMin >= o.ZoomMax {
		return errors.New(errors.ErrCodeInvalidConfig, "zoom bounds %g..%g are not a valid range", o.ZoomMin, o.ZoomMax)
	}
	if o.ZoomStep <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "zoom_step must be positive, got %g", o.ZoomStep)
	}
	return nil
}
