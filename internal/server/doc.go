// Package server implements the MCP (Model Context Protocol) server for
// total-variation image restoration.
//
// This package provides a JSON-RPC 2.0 server that exposes the restoration
// solvers through the MCP protocol, so MCP clients can degrade, restore and
// score grayscale images on disk.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Restoration:
//   - tv_denoise: ROF denoising, optionally after adding Gaussian noise
//   - tv_inpaint: Mask an image and reconstruct the hidden cells
//   - dct_denoise: DCT-domain threshold denoising baseline
//
// Analysis:
//   - quality_compare: MSE, SNR and PSNR of one image against another
//   - gradient_visualize: Color-coded gradient field and total variation
//
// Restoration tools return the degraded input and the result side by side as
// a base64 PNG, plus quality scores against the unmodified image. Every call
// is tagged with a run id that appears in the result and in log lines.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images and their
// grayscale grids. Tools receive clones, so a run never alters the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New()
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
