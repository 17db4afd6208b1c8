package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/tv-restore-mcp/internal/dctdenoise"
	"github.com/ironsheep/tv-restore-mcp/internal/derivative"
	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/history"
	"github.com/ironsheep/tv-restore-mcp/internal/imaging"
	"github.com/ironsheep/tv-restore-mcp/internal/logging"
	"github.com/ironsheep/tv-restore-mcp/internal/masking"
	"github.com/ironsheep/tv-restore-mcp/internal/quality"
	"github.com/ironsheep/tv-restore-mcp/internal/tv"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "tv_inpaint").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	runID := uuid.NewString()
	ctx = logging.AppendCtx(ctx, slog.String("tool", params.Name), slog.String("run_id", runID))
	start := time.Now()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		slog.WarnContext(ctx, "tool failed", "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	if r, ok := result.(runResult); ok {
		r.setRunID(runID)
	}
	elapsed := time.Since(start)
	slog.InfoContext(ctx, "tool done", "elapsed", elapsed)
	if res, ok := result.(*RestoreResult); ok {
		s.record(ctx, params.Name, res, elapsed)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Runs the restoration and scores it
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Restoration
	case "tv_denoise":
		return s.handleTVDenoise(ctx, args)
	case "tv_inpaint":
		return s.handleTVInpaint(ctx, args)
	case "dct_denoise":
		return s.handleDCTDenoise(args)

	// Analysis
	case "quality_compare":
		return s.handleQualityCompare(args)
	case "gradient_visualize":
		return s.handleGradientVisualize(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// record appends a restoration to the history store, if one is set. Failures
// are logged and do not fail the tool call.
func (s *Server) record(ctx context.Context, tool string, res *RestoreResult, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	label := res.Mask
	if label == "" {
		label = tool
	}
	_, err := s.history.Record(ctx, history.Run{
		ID:         res.RunID,
		Source:     "mcp " + tool,
		Label:      label,
		Image:      res.Path,
		Iterations: res.Iterations,
		Lambda:     res.Lambda,
		Before:     res.Degraded,
		After:      res.Restored,
		Elapsed:    elapsed,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record run", "error", err)
	}
}

// runResult is implemented by results that report the run id.
type runResult interface {
	setRunID(id string)
}

// RestoreResult is returned by the restoration tools.
type RestoreResult struct {
	RunID      string  `json:"run_id"`
	Path       string  `json:"path"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Iterations int     `json:"iterations,omitempty"`
	Lambda     float32 `json:"lambda,omitempty"`
	Mask       string  `json:"mask,omitempty"`
	Energy     float64 `json:"energy,omitempty"`

	// Degraded scores the solver input against the original image; Restored
	// scores the output.
	Degraded *quality.Report `json:"degraded,omitempty"`
	Restored *quality.Report `json:"restored,omitempty"`

	// Image shows the degraded input and the restoration side by side.
	Image      *imaging.EncodedImage `json:"image"`
	OutputPath string                `json:"output_path,omitempty"`
}

func (r *RestoreResult) setRunID(id string) { r.RunID = id }

// === Basic Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Restoration Handlers ===

// outputArgs are shared by the tools that return an image.
type outputArgs struct {
	Scale      float64 `json:"scale"`
	Rescale    string  `json:"rescale"`
	OutputPath string  `json:"output_path"`
}

type tvDenoiseArgs struct {
	Path       string  `json:"path"`
	Iterations int     `json:"iterations"`
	Lambda     float32 `json:"lambda"`
	Clamp      bool    `json:"clamp"`
	NoiseSigma float64 `json:"noise_sigma"`
	Seed       int64   `json:"seed"`
	outputArgs
}

func (s *Server) handleTVDenoise(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tvDenoiseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := tv.DefaultDiffusionConfig()
	if a.Iterations != 0 {
		cfg.Iterations = a.Iterations
	}
	if a.Lambda != 0 {
		cfg.Lambda = a.Lambda
	}
	cfg.ClampToUnitInterval = a.Clamp
	if a.Seed == 0 {
		a.Seed = 1
	}

	clean, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	input := clean
	if a.NoiseSigma > 0 {
		if input, err = dctdenoise.AddNoise(clean, a.NoiseSigma, rand.New(rand.NewSource(a.Seed))); err != nil {
			return nil, err
		}
	}

	out, err := tv.Diffuse(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	energy, err := tv.DiffusionEnergy(out, input, cfg.Lambda)
	if err != nil {
		return nil, err
	}

	res := &RestoreResult{
		Path:       a.Path,
		Width:      clean.Cols(),
		Height:     clean.Rows(),
		Iterations: cfg.Iterations,
		Lambda:     cfg.Lambda,
		Energy:     energy,
	}
	if a.NoiseSigma > 0 {
		if res.Degraded, res.Restored, err = scoreBoth(input, out, clean); err != nil {
			return nil, err
		}
	}
	if err := s.attachImage(res, a.outputArgs, input, out); err != nil {
		return nil, err
	}
	return res, nil
}

type tvInpaintArgs struct {
	Path       string        `json:"path"`
	Iterations int           `json:"iterations"`
	Mask       *masking.Spec `json:"mask"`
	Seed       int64         `json:"seed"`
	outputArgs
}

func (s *Server) handleTVInpaint(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tvInpaintArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := tv.DefaultInpaintingConfig()
	if a.Iterations != 0 {
		cfg.Iterations = a.Iterations
	}
	if a.Mask == nil {
		a.Mask = &masking.Spec{Type: "random", Ratio: masking.DefaultRatio}
	}
	if a.Seed == 0 {
		a.Seed = 1
	}

	original, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	mask, err := a.Mask.Build(original.Rows(), original.Cols(), rand.New(rand.NewSource(a.Seed)))
	if err != nil {
		return nil, err
	}
	masked, err := masking.Apply(original, mask)
	if err != nil {
		return nil, err
	}

	out, err := tv.Inpaint(ctx, masked, mask, cfg)
	if err != nil {
		return nil, err
	}
	energy, err := tv.InpaintingEnergy(out, masked, mask)
	if err != nil {
		return nil, err
	}

	res := &RestoreResult{
		Path:       a.Path,
		Width:      original.Cols(),
		Height:     original.Rows(),
		Iterations: cfg.Iterations,
		Mask:       a.Mask.String(),
		Energy:     energy,
	}
	if res.Degraded, res.Restored, err = scoreBoth(masked, out, original); err != nil {
		return nil, err
	}
	if err := s.attachImage(res, a.outputArgs, masked, out); err != nil {
		return nil, err
	}
	return res, nil
}

type dctDenoiseArgs struct {
	Path  string  `json:"path"`
	Sigma float64 `json:"sigma"`
	Mode  string  `json:"mode"`
	Seed  int64   `json:"seed"`
	outputArgs
}

func (s *Server) handleDCTDenoise(args json.RawMessage) (interface{}, error) {
	var a dctDenoiseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Sigma == 0 {
		a.Sigma = 0.1
	}
	if a.Mode == "" {
		a.Mode = "hard"
	}
	if a.Seed == 0 {
		a.Seed = 1
	}
	mode, err := dctdenoise.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}

	clean, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	noisy, err := dctdenoise.AddNoise(clean, a.Sigma, rand.New(rand.NewSource(a.Seed)))
	if err != nil {
		return nil, err
	}
	out, err := dctdenoise.Denoise(noisy, a.Sigma, mode)
	if err != nil {
		return nil, err
	}

	res := &RestoreResult{
		Path:   a.Path,
		Width:  clean.Cols(),
		Height: clean.Rows(),
	}
	if res.Degraded, res.Restored, err = scoreBoth(noisy, out, clean); err != nil {
		return nil, err
	}
	if err := s.attachImage(res, a.outputArgs, noisy, out); err != nil {
		return nil, err
	}
	return res, nil
}

// scoreBoth scores the degraded input and the restoration against reference.
func scoreBoth(degraded, restored, reference *grid.Grid) (*quality.Report, *quality.Report, error) {
	before, err := quality.Compare(degraded, reference, nil)
	if err != nil {
		return nil, nil, err
	}
	after, err := quality.Compare(restored, reference, nil)
	if err != nil {
		return nil, nil, err
	}
	return &before, &after, nil
}

// attachImage renders the degraded and restored grids side by side, encodes
// the composite into res and optionally saves it to disk.
func (s *Server) attachImage(res *RestoreResult, o outputArgs, degraded, restored *grid.Grid) error {
	mode, err := imaging.ParseRescaleMode(o.Rescale)
	if err != nil {
		return err
	}
	left, err := imaging.FromGrid(degraded, mode)
	if err != nil {
		return err
	}
	right, err := imaging.FromGrid(restored, mode)
	if err != nil {
		return err
	}
	composite, err := imaging.SideBySide(compositeGap, left, right)
	if err != nil {
		return err
	}
	if o.OutputPath != "" {
		if err := imaging.SavePNG(o.OutputPath, composite); err != nil {
			return err
		}
		res.OutputPath = o.OutputPath
	}
	if res.Image, err = imaging.Encode(composite, o.Scale); err != nil {
		return err
	}
	return nil
}

// compositeGap separates the panels of a composite, in pixels.
const compositeGap = 4

// === Analysis Handlers ===

type qualityCompareArgs struct {
	Path          string `json:"path"`
	ReferencePath string `json:"reference_path"`
	MaskPath      string `json:"mask_path"`
}

func (s *Server) handleQualityCompare(args json.RawMessage) (interface{}, error) {
	var a qualityCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	test, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	ref, err := s.cache.LoadGrid(a.ReferencePath)
	if err != nil {
		return nil, err
	}
	var mask *grid.Grid
	if a.MaskPath != "" {
		if mask, err = s.cache.LoadGrid(a.MaskPath); err != nil {
			return nil, err
		}
	}
	return quality.Compare(test, ref, mask)
}

type gradientVisualizeArgs struct {
	Path   string  `json:"path"`
	Scheme string  `json:"scheme"`
	Scale  float64 `json:"scale"`
}

// GradientResult describes the gradient field of an image.
type GradientResult struct {
	Scheme         string                `json:"scheme"`
	TotalVariation float64               `json:"total_variation"`
	Image          *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleGradientVisualize(args json.RawMessage) (interface{}, error) {
	var a gradientVisualizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scheme == "" {
		a.Scheme = "forward"
	}
	scheme, err := derivative.ParseScheme(a.Scheme)
	if err != nil {
		return nil, err
	}

	g, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	field, err := derivative.Gradient(g, scheme)
	if err != nil {
		return nil, err
	}
	tvValue, err := derivative.TotalVariation(g)
	if err != nil {
		return nil, err
	}
	img, err := imaging.RenderVectorField(field)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.Encode(img, a.Scale)
	if err != nil {
		return nil, err
	}
	return &GradientResult{
		Scheme:         scheme.String(),
		TotalVariation: tvValue,
		Image:          encoded,
	}, nil
}
