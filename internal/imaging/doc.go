// Package imaging is the image I/O boundary of the restoration tools.
//
// Images enter as files (PNG, JPEG or GIF) and are converted to grayscale
// sample grids with intensities normalized to [0,1]. Results leave as 8-bit
// grayscale or color images, either written to disk or returned as base64
// PNG for MCP clients.
//
// # Coordinate System
//
// Image coordinates put (0,0) at the top-left corner, X increasing rightward
// and Y increasing downward. A grid cell (row, col) maps to pixel (X=col,
// Y=row) relative to the image bounds.
//
// # Rescaling
//
// Grids outside [0,1] are mapped to 8-bit intensities with one of two rules:
//   - RescaleClamp: values are clamped to [0,1] then scaled by 255
//   - RescaleMinMax: the grid's own [min,max] range is stretched over
//     [0,255]; a flat grid maps to mid-gray
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The conversion and rendering
// functions are stateless and can be called concurrently.
package imaging
